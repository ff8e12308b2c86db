package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/oficina/internal/mirror"
)

type syncState int

const (
	syncChoose syncState = iota
	syncRunning
	syncDone
)

type syncProgressMsg struct {
	collection mirror.Collection
	fetched    int
}

type syncFinishedMsg struct {
	report mirror.Report
	err    error
}

// syncInput backs the direction and collection form.
type syncInput struct {
	direction   mirror.Direction
	collections []mirror.Collection
}

type SyncModel struct {
	CommonModel

	service *mirror.Service
	state   syncState
	input   *syncInput
	form    *huh.Form
	spinner spinner.Model
	events  chan tea.Msg

	progress syncProgressMsg
	report   mirror.Report
	err      error
}

func NewSyncModel(service *mirror.Service) SyncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := SyncModel{service: service, spinner: s}
	m.resetForm()

	return m
}

func (m *SyncModel) resetForm() {
	m.input = &syncInput{direction: mirror.Down, collections: append([]mirror.Collection{}, mirror.Collections...)}

	options := make([]huh.Option[mirror.Collection], 0, len(mirror.Collections))
	for _, c := range mirror.Collections {
		options = append(options, huh.NewOption(collectionLabel(c), c).Selected(true))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[mirror.Direction]().Title("Sincronizar").Options(
				huh.NewOption("Baixar da nuvem (substitui os dados locais)", mirror.Down),
				huh.NewOption("Enviar para a nuvem (substitui os dados remotos)", mirror.Up),
			).Value(&m.input.direction),
			huh.NewMultiSelect[mirror.Collection]().Title("Coleções").Options(options...).Value(&m.input.collections),
		),
	).WithWidth(70).WithShowHelp(false)
}

func collectionLabel(c mirror.Collection) string {
	switch c {
	case mirror.Ledger:
		return "Financeiro"
	case mirror.WorkOrders:
		return "Ordens de serviço"
	case mirror.Clients:
		return "Clientes"
	case mirror.CatalogParts:
		return "Catálogo de peças"
	case mirror.CatalogServices:
		return "Catálogo de serviços"
	}

	return string(c)
}

func (m SyncModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

		return m, nil
	case syncProgressMsg:
		m.progress = msg
		return m, listen(m.events)
	case syncFinishedMsg:
		m.state = syncDone
		m.report = msg.report
		m.err = msg.err
		m.events = nil

		return m, nil
	case spinner.TickMsg:
		if m.state != syncRunning {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	switch m.state {
	case syncChoose:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
			return m, Back
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		switch m.form.State {
		case huh.StateAborted:
			return m, Back
		case huh.StateCompleted:
			return m.start()
		}

		return m, cmd
	case syncDone:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.Type {
			case tea.KeyEsc:
				return m, Back
			case tea.KeyEnter:
				m.state = syncChoose
				m.err = nil
				m.report = mirror.Report{}
				m.progress = syncProgressMsg{}
				m.resetForm()

				return m, m.form.Init()
			}
		}
	}

	return m, nil
}

// start runs the sync off the UI loop. Progress and the final report are
// delivered through events, one message per listen.
func (m SyncModel) start() (tea.Model, tea.Cmd) {
	m.state = syncRunning
	m.events = make(chan tea.Msg, 16)

	in := *m.input
	svc := m.service
	events := m.events

	go func() {
		ctx, cancel := opCtx()
		defer cancel()

		progress := func(c mirror.Collection, fetched int) {
			events <- syncProgressMsg{collection: c, fetched: fetched}
		}

		var (
			report mirror.Report
			err    error
		)

		if in.direction == mirror.Up {
			report, err = svc.SyncUp(ctx, in.collections...)
		} else {
			report, err = svc.SyncDown(ctx, progress, in.collections...)
		}

		events <- syncFinishedMsg{report: report, err: err}
	}()

	return m, tea.Batch(m.spinner.Tick, listen(events))
}

func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func (m SyncModel) View() string {
	title := titleStyle.Render("Sincronização")

	switch m.state {
	case syncChoose:
		return screenStyle.Render(title + "\n\n" + m.form.View() + "\n\n(Esc volta)")
	case syncRunning:
		line := "Conectando..."
		if m.progress.collection != "" {
			line = fmt.Sprintf("%s: %d registro(s) recebidos", collectionLabel(m.progress.collection), m.progress.fetched)
		}

		return screenStyle.Render(fmt.Sprintf("%s\n\n%s %s", title, m.spinner.View(), line))
	}

	var b strings.Builder

	if m.err != nil {
		b.WriteString(errorStyle.Render("Erro: " + m.err.Error()))
	}

	for _, res := range m.report.Results {
		if res.Err != nil {
			fmt.Fprintf(&b, "%s\n", errorStyle.Render(fmt.Sprintf("✗ %s: %v", collectionLabel(res.Collection), res.Err)))
			continue
		}

		fmt.Fprintf(&b, "%s\n", okStyle.Render(fmt.Sprintf("✓ %s: %d registro(s)", collectionLabel(res.Collection), res.Records)))
	}

	return screenStyle.Render(title + "\n\n" + b.String() + "\n(Enter sincroniza novamente, Esc volta)")
}
