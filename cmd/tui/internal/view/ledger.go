package view

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/money"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

const terminalActor = "terminal"

type ledgerState int

const (
	ledgerPeriod ledgerState = iota
	ledgerList
	ledgerForm
	ledgerAmend
	ledgerDelete
)

type entryItem struct {
	entry ledger.Entry
}

func (i entryItem) Title() string {
	sign := "+"
	if i.entry.Type == ledger.TypeDebit {
		sign = "-"
	}

	return fmt.Sprintf("%s  %s%s  %s", FormatDate(i.entry.EffectiveDate), sign, FormatAmount(i.entry.Amount), i.entry.Description)
}

func (i entryItem) Description() string {
	var parts []string

	if i.entry.GroupID != "" {
		parts = append(parts, "grupo "+i.entry.GroupID[:min(8, len(i.entry.GroupID))])
	}

	if i.entry.Audited() {
		last := i.entry.History[len(i.entry.History)-1]
		parts = append(parts, "auditado: "+last.Note)
	}

	if len(parts) == 0 {
		return "registrado em " + i.entry.CreatedAt.UTC().Format("02/01/2006 15:04")
	}

	return strings.Join(parts, " • ")
}

func (i entryItem) FilterValue() string {
	return i.entry.Description
}

// entryInput backs the new entry form.
type entryInput struct {
	description string
	amount      string
	typ         ledger.Type
	mode        ledger.Mode
	count       string
	date        string
}

func (in *entryInput) params() (ledger.RecurrenceParams, error) {
	total, err := money.Parse(in.amount)
	if err != nil {
		return ledger.RecurrenceParams{}, err
	}

	date, err := time.Parse("02/01/2006", strings.TrimSpace(in.date))
	if err != nil {
		return ledger.RecurrenceParams{}, fmt.Errorf("data inválida: %w", err)
	}

	count := 1
	if in.mode != ledger.ModeSingle {
		if count, err = strconv.Atoi(strings.TrimSpace(in.count)); err != nil {
			return ledger.RecurrenceParams{}, fmt.Errorf("quantidade inválida: %w", err)
		}
	}

	return ledger.RecurrenceParams{
		Description: strings.TrimSpace(in.description),
		Total:       total,
		Type:        in.typ,
		Start:       date,
		Mode:        in.mode,
		Count:       count,
	}, nil
}

type amendInput struct {
	amount string
	reason string
}

const (
	deleteNone  = ""
	deleteOne   = "one"
	deleteGroup = "group"
)

type LedgerModel struct {
	CommonModel

	app    *workshop.App
	state  ledgerState
	picker PeriodPicker
	period ledger.Period
	list   list.Model

	entryIn  *entryInput
	amendIn  *amendInput
	deleteIn *string
	form     *huh.Form

	summary workshop.Summary
	status  string
	err     error
}

func NewLedgerModel(app *workshop.App) LedgerModel {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	return LedgerModel{app: app, picker: NewPeriodPicker(), list: l}
}

func (m LedgerModel) Init() tea.Cmd {
	return nil
}

// periodEntries returns the entries of p ordered by competency date.
func periodEntries(entries []ledger.Entry, p ledger.Period) []ledger.Entry {
	out := ledger.Filter(entries, p, "")

	slices.SortStableFunc(out, func(a, b ledger.Entry) int {
		if c := a.EffectiveDate.Compare(b.EffectiveDate); c != 0 {
			return c
		}

		return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	})

	return out
}

func (m *LedgerModel) reload() tea.Cmd {
	entries := periodEntries(m.app.Snapshot().Ledger, m.period)

	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryItem{entry: e})
	}

	m.summary = m.app.Summarize(m.period)

	return m.list.SetItems(items)
}

func (m LedgerModel) selected() (ledger.Entry, bool) {
	it, ok := m.list.SelectedItem().(entryItem)
	return it.entry, ok
}

func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-14, 5))

		return m, nil
	case PeriodSelectedMsg:
		m.period = msg.Period
		m.state = ledgerList
		m.status = ""
		m.err = nil

		return m, m.reload()
	case dispatchedMsg:
		m.state = ledgerList
		m.err = msg.err
		m.status = ""

		if msg.err == nil {
			m.status = fmt.Sprintf("%d lançamento(s) alterado(s)", max(len(msg.res.Entries), 1))
		}

		return m, m.reload()
	}

	switch m.state {
	case ledgerPeriod:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc && m.picker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	case ledgerForm, ledgerAmend, ledgerDelete:
		return m.updateForm(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch key.String() {
		case "esc":
			m.state = ledgerPeriod
			m.picker.Reset()

			return m, nil
		case "q":
			return m, Back
		case "n":
			return m.openEntryForm()
		case "e":
			if e, ok := m.selected(); ok {
				return m.openAmendForm(e)
			}
		case "x":
			if e, ok := m.selected(); ok {
				return m.openDeleteForm(e)
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m LedgerModel) openEntryForm() (tea.Model, tea.Cmd) {
	m.entryIn = &entryInput{
		typ:   ledger.TypeDebit,
		mode:  ledger.ModeSingle,
		count: "1",
		date:  time.Now().Format("02/01/2006"),
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Descrição").Value(&m.entryIn.description).Validate(required),
			huh.NewInput().Title("Valor total").Value(&m.entryIn.amount).Validate(requiredAmount),
			huh.NewSelect[ledger.Type]().Title("Tipo").Options(
				huh.NewOption("Despesa", ledger.TypeDebit),
				huh.NewOption("Receita", ledger.TypeCredit),
			).Value(&m.entryIn.typ),
			huh.NewSelect[ledger.Mode]().Title("Forma").Options(
				huh.NewOption("Único", ledger.ModeSingle),
				huh.NewOption("Parcelado (divide o total)", ledger.ModeInstallment),
				huh.NewOption("Recorrente (repete o valor)", ledger.ModeRecurring),
			).Value(&m.entryIn.mode),
			huh.NewInput().Title("Quantidade de meses").Value(&m.entryIn.count).Validate(optionalInt),
			huh.NewInput().Title("Data (dd/mm/aaaa)").Value(&m.entryIn.date).Validate(validDate),
		),
	).WithWidth(60).WithShowHelp(false)

	m.state = ledgerForm

	return m, m.form.Init()
}

func (m LedgerModel) openAmendForm(e ledger.Entry) (tea.Model, tea.Cmd) {
	m.amendIn = &amendInput{amount: money.Decimal(e.Amount)}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Corrigir lançamento").Description(e.Description),
			huh.NewInput().Title("Novo valor").Value(&m.amendIn.amount).Validate(requiredAmount),
			huh.NewInput().Title("Motivo").Value(&m.amendIn.reason),
		),
	).WithWidth(60).WithShowHelp(false)

	m.state = ledgerAmend

	return m, m.form.Init()
}

func (m LedgerModel) openDeleteForm(e ledger.Entry) (tea.Model, tea.Cmd) {
	choice := deleteNone
	m.deleteIn = &choice

	options := []huh.Option[string]{huh.NewOption("Excluir este lançamento", deleteOne)}
	if e.GroupID != "" {
		options = append(options, huh.NewOption("Excluir todas as parcelas do grupo", deleteGroup))
	}

	options = append(options, huh.NewOption("Cancelar", deleteNone))

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title(fmt.Sprintf("Excluir %q?", e.Description)).Options(options...).Value(m.deleteIn),
		),
	).WithWidth(60).WithShowHelp(false)

	m.state = ledgerDelete

	return m, m.form.Init()
}

func (m LedgerModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.state = ledgerList
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.state = ledgerList
		return m, nil
	case huh.StateCompleted:
		state := m.state
		m.state = ledgerList

		c, err := m.command(state)
		if err != nil {
			m.err = err
			return m, nil
		}

		if c == nil {
			return m, nil
		}

		return m, dispatch(m.app, c, pendingDecision{})
	}

	return m, cmd
}

// command builds the ledger command for the completed form, or nil when
// the user chose to do nothing.
func (m LedgerModel) command(state ledgerState) (workshop.Command, error) {
	switch state {
	case ledgerForm:
		p, err := m.entryIn.params()
		if err != nil {
			return nil, err
		}

		return workshop.AddEntry{Params: p}, nil
	case ledgerAmend:
		e, ok := m.selected()
		if !ok {
			return nil, nil
		}

		amount, err := money.Parse(m.amendIn.amount)
		if err != nil {
			return nil, err
		}

		return workshop.AmendEntry{EntryID: e.ID, Params: ledger.AmendParams{
			Amount: &amount,
			Actor:  terminalActor,
			Reason: strings.TrimSpace(m.amendIn.reason),
		}}, nil
	case ledgerDelete:
		e, ok := m.selected()
		if !ok {
			return nil, nil
		}

		switch *m.deleteIn {
		case deleteOne:
			return workshop.DeleteEntry{EntryID: e.ID}, nil
		case deleteGroup:
			return workshop.DeleteGroup{GroupID: e.GroupID}, nil
		}
	}

	return nil, nil
}

func (m LedgerModel) View() string {
	title := titleStyle.Render("Financeiro")

	switch m.state {
	case ledgerPeriod:
		return screenStyle.Render(title + "\n\n" + m.picker.View())
	case ledgerForm, ledgerAmend, ledgerDelete:
		return screenStyle.Render(title + "\n\n" + m.form.View() + "\n\n(Esc cancela)")
	}

	s := m.summary
	header := fmt.Sprintf("Período %s   Receitas %s   Despesas %s   Saldo %s",
		s.Period, FormatAmount(s.Revenue), FormatAmount(s.Expense), FormatAmount(s.Balance))

	if s.FinishedOrders > 0 {
		header += fmt.Sprintf("\nOS finalizadas %d   Ticket médio %s", s.FinishedOrders, FormatAmount(s.AverageTicket))
	}

	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = faintStyle.Render("Nenhum lançamento neste período.")
	}

	footer := ""

	if m.err != nil {
		footer = "\n\n" + errorStyle.Render("Erro: "+m.err.Error())
	} else if m.status != "" {
		footer = "\n\n" + okStyle.Render(m.status)
	}

	return screenStyle.Render(title + "\n\n" + boxStyle.Render(header) + "\n\n" + body + footer + "\n\n" +
		faintStyle.Render("n novo • e corrigir valor • x excluir • / filtrar • esc período • q sair"))
}

func requiredAmount(s string) error {
	if err := required(s); err != nil {
		return err
	}

	return optionalAmount(s)
}

func validDate(s string) error {
	if _, err := time.Parse("02/01/2006", strings.TrimSpace(s)); err != nil {
		return errors.New("use dd/mm/aaaa")
	}

	return nil
}
