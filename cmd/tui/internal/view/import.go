package view

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/oficina/internal/importer"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

type importState int

const (
	importStateFilePick importState = iota
	importStateImporting
	importStateConflicts
	importStateResult
)

type ImportModel struct {
	CommonModel

	app           *workshop.App
	importService *importer.Service

	state      importState
	filePicker filepicker.Model

	imported     int
	conflicts    []ledger.Conflict
	conflictList list.Model
	selected     map[int]bool

	status string
	err    error
}

func NewImportModel(app *workshop.App, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		app:           app,
		importService: impSvc,
		filePicker:    fp,
		selected:      make(map[int]bool),
	}
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateConflicts {
			return m.updateConflicts(msg)
		}
	case importResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err

			return m, nil
		}

		m.imported = len(msg.res.Entries)

		if len(msg.res.Conflicts) == 0 {
			m.state = importStateResult
			m.status = fmt.Sprintf("%d lançamento(s) importado(s).", m.imported)

			return m, nil
		}

		m.conflicts = msg.res.Conflicts
		m.selected = make(map[int]bool)
		m.state = importStateConflicts

		items := make([]list.Item, len(m.conflicts))
		for i, c := range m.conflicts {
			items[i] = conflictItem{conflict: c, index: i}
		}

		m.conflictList = list.New(items, conflictDelegate{selected: m.selected}, 80, 20)
		m.conflictList.Title = fmt.Sprintf("%d importado(s). Já lançados no caixa, marque os que devem entrar mesmo assim:", m.imported)
		m.conflictList.SetShowStatusBar(false)
		m.conflictList.SetFilteringEnabled(false)
		m.conflictList.SetShowHelp(false)

		return m, nil
	case confirmResultMsg:
		m.state = importStateResult

		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.status = fmt.Sprintf("%d lançamento(s) importado(s).", m.imported+msg.count)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importando %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateResult, importStateConflicts:
		m.state = importStateFilePick
		m.err = nil
		m.status = ""
		m.conflicts = nil
		m.selected = make(map[int]bool)

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.conflictList.Index()
		m.selected[idx] = !m.selected[idx]

		return m, nil
	case "a":
		for i := range m.conflicts {
			m.selected[i] = true
		}

		return m, nil
	case "n":
		for i := range m.conflicts {
			m.selected[i] = false
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	title := titleStyle.Render("Importar extrato")

	switch m.state {
	case importStateFilePick:
		return screenStyle.Render(title + "\n\nSelecione o arquivo CSV:\n\n" + m.filePicker.View() + "\n\n(Esc volta)")
	case importStateImporting:
		return screenStyle.Render(title + "\n\n" + m.status)
	case importStateConflicts:
		return screenStyle.Render(title + "\n\n" + m.conflictList.View() + "\n\n" +
			faintStyle.Render("espaço marca • a todos • n nenhum • enter confirma • esc cancela"))
	}

	if m.err != nil {
		return screenStyle.Render(title + "\n\n" + errorStyle.Render("Erro: "+m.err.Error()) + "\n\n(Esc volta)")
	}

	return screenStyle.Render(title + "\n\n" + okStyle.Render(m.status) + "\n\n(Esc volta)")
}

type importResultMsg struct {
	res workshop.Result
	err error
}

type confirmResultMsg struct {
	count int
	err   error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		params, err := m.importService.Import(importer.FormatStatement, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := opCtx()
		defer cancel()

		res, err := m.app.Dispatch(ctx, workorder.Answers{}, workshop.ImportEntries{Params: params})

		return importResultMsg{res: res, err: err}
	}
}

func (m ImportModel) confirmCmd() tea.Cmd {
	var params []ledger.CreateParams

	for i, c := range m.conflicts {
		if m.selected[i] {
			params = append(params, c.Incoming)
		}
	}

	return func() tea.Msg {
		if len(params) == 0 {
			return confirmResultMsg{}
		}

		ctx, cancel := opCtx()
		defer cancel()

		res, err := m.app.Dispatch(ctx, workorder.Answers{}, workshop.ImportEntries{Params: params, Force: true})
		if err != nil {
			return confirmResultMsg{err: err}
		}

		return confirmResultMsg{count: len(res.Entries)}
	}
}

type conflictItem struct {
	conflict ledger.Conflict
	index    int
}

func (i conflictItem) FilterValue() string { return i.conflict.Incoming.Description }

// conflictDelegate renders a conflict with its checkbox. selected is shared
// with the model.
type conflictDelegate struct {
	selected map[int]bool
}

func (d conflictDelegate) Height() int                             { return 2 }
func (d conflictDelegate) Spacing() int                            { return 1 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if d.selected[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	incoming := item.conflict.Incoming
	existing := item.conflict.Existing

	fmt.Fprintf(w, "%s%s %s  %s  %s\n", cursor, checkbox, FormatDate(incoming.Date), FormatAmount(incoming.Amount), incoming.Description)
	fmt.Fprint(w, faintStyle.Render(fmt.Sprintf("      já lançado em %s: %s", FormatDate(existing.EffectiveDate), existing.Description)))
}
