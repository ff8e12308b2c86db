package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/oficina/internal/export"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/storage"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

type exportState int

const (
	exportSelectPeriod exportState = iota
	exportRunning
	exportDone
)

type exportFinishedMsg struct {
	result storage.ExportResult
	err    error
}

type ExportModel struct {
	CommonModel

	app     *workshop.App
	service *export.Service
	state   exportState
	picker  PeriodPicker
	period  ledger.Period
	spinner spinner.Model
	result  storage.ExportResult
	err     error
}

func NewExportModel(app *workshop.App, service *export.Service) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return ExportModel{
		app:     app,
		service: service,
		picker:  NewPeriodPicker(),
		spinner: s,
	}
}

func (m ExportModel) Init() tea.Cmd {
	return nil
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

		return m, nil
	case PeriodSelectedMsg:
		m.period = msg.Period
		m.state = exportRunning

		return m, tea.Batch(m.spinner.Tick, m.runExport())
	case exportFinishedMsg:
		m.state = exportDone
		m.result = msg.result
		m.err = msg.err

		return m, nil
	case spinner.TickMsg:
		if m.state != exportRunning {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	switch m.state {
	case exportSelectPeriod:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc && m.picker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	case exportDone:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.Type {
			case tea.KeyEsc:
				return m, Back
			case tea.KeyEnter:
				m.state = exportSelectPeriod
				m.picker.Reset()
				m.err = nil
			}
		}
	}

	return m, nil
}

func (m ExportModel) runExport() tea.Cmd {
	period := m.period

	return func() tea.Msg {
		ctx, cancel := opCtx()
		defer cancel()

		doc := m.app.Snapshot()
		res, err := m.service.Export(ctx, doc.Ledger, doc.WorkOrders, period)

		return exportFinishedMsg{result: res, err: err}
	}
}

func (m ExportModel) View() string {
	title := titleStyle.Render("Exportar relatório")

	switch m.state {
	case exportSelectPeriod:
		return screenStyle.Render(title + "\n\n" + m.picker.View())
	case exportRunning:
		return screenStyle.Render(fmt.Sprintf("%s\n\n%s Gerando relatório de %s...", title, m.spinner.View(), m.period))
	}

	var body string

	switch {
	case m.err != nil:
		body = errorStyle.Render("Erro: " + m.err.Error())
	case m.result.Success:
		body = okStyle.Render(m.result.Message)
	default:
		body = errorStyle.Render(m.result.Message)
	}

	return screenStyle.Render(title + "\n\n" + body + "\n\n(Enter exporta outro período, Esc volta)")
}
