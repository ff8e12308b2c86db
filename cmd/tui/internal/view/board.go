package view

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/oficina/internal/money"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

type boardState int

const (
	boardList boardState = iota
	boardForm
	boardConfirm
	boardDelete
)

// orderInput backs the new order form.
type orderInput struct {
	client       string
	phone        string
	model        string
	plate        string
	mileage      string
	service      string
	servicePrice string
	part         string
	partPrice    string
}

type BoardModel struct {
	CommonModel

	app          *workshop.App
	state        boardState
	table        table.Model
	orders       []workorder.Order
	showArchived bool

	input    *orderInput
	form     *huh.Form
	confirm  *confirmation
	deleteOK *bool

	status string
	err    error
}

func NewBoardModel(app *workshop.App) BoardModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "OS", Width: 6},
			{Title: "Status", Width: 12},
			{Title: "Cliente", Width: 24},
			{Title: "Veículo", Width: 24},
			{Title: "Total", Width: 14},
			{Title: "Caixa", Width: 6},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	m := BoardModel{app: app, table: t}
	m.reload()

	return m
}

func (m BoardModel) Init() tea.Cmd {
	return nil
}

// boardOrders returns the orders in board order: by lifecycle position,
// then by OS number.
func boardOrders(orders []workorder.Order, showArchived bool) []workorder.Order {
	out := make([]workorder.Order, 0, len(orders))

	for _, o := range orders {
		if o.Status == workorder.StatusArchived && !showArchived {
			continue
		}

		out = append(out, o)
	}

	rank := func(s workorder.Status) int {
		if i := slices.Index(workorder.Flow, s); i >= 0 {
			return i
		}

		return len(workorder.Flow)
	}

	slices.SortStableFunc(out, func(a, b workorder.Order) int {
		if d := rank(a.Status) - rank(b.Status); d != 0 {
			return d
		}

		return a.OSNumber - b.OSNumber
	})

	return out
}

func (m *BoardModel) reload() {
	m.orders = boardOrders(m.app.Snapshot().WorkOrders, m.showArchived)

	rows := make([]table.Row, 0, len(m.orders))

	for _, o := range m.orders {
		linked := ""
		if o.FinancialID != "" {
			linked = "✓"
		}

		rows = append(rows, table.Row{
			fmt.Sprintf("#%d", o.OSNumber),
			o.Status.Label(),
			o.ClientName,
			o.Vehicle,
			FormatAmount(o.Total),
			linked,
		})
	}

	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m BoardModel) selected() (workorder.Order, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.orders) {
		return workorder.Order{}, false
	}

	return m.orders[c], true
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}

		return m, nil
	case dispatchedMsg:
		return m.handleDispatched(msg)
	}

	switch m.state {
	case boardForm:
		return m.updateForm(msg)
	case boardConfirm:
		cmd, done := m.confirm.update(m.app, msg)
		if done {
			m.state = boardList
			m.confirm = nil
		}

		return m, cmd
	case boardDelete:
		return m.updateDelete(msg)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	o, hasOrder := m.selected()

	switch key.String() {
	case "esc", "q":
		return m, Back
	case "t":
		m.showArchived = !m.showArchived
		m.reload()

		return m, nil
	case "n":
		return m.openForm()
	}

	if hasOrder {
		switch key.String() {
		case "right", "l":
			return m, dispatch(m.app, workshop.Advance{OrderID: o.ID}, pendingDecision{})
		case "left", "h":
			return m, dispatch(m.app, workshop.Regress{OrderID: o.ID}, pendingDecision{})
		case "f":
			return m, dispatch(m.app, workshop.SetStatus{OrderID: o.ID, Status: workorder.StatusFinished}, pendingDecision{})
		case "a":
			return m, dispatch(m.app, workshop.Archive{OrderID: o.ID}, pendingDecision{})
		case "u":
			return m, dispatch(m.app, workshop.Restore{OrderID: o.ID}, pendingDecision{})
		case "x":
			return m.openDelete(o)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BoardModel) handleDispatched(msg dispatchedMsg) (tea.Model, tea.Cmd) {
	if p, ok := msg.prompt(); ok {
		m.confirm = newConfirmation(msg, p)
		m.state = boardConfirm

		return m, m.confirm.form.Init()
	}

	m.state = boardList
	m.err = nil
	m.status = ""

	switch {
	case msg.err != nil:
		m.err = msg.err
	case msg.res.Declined:
		m.status = "Alteração cancelada"
	case msg.res.Order != nil:
		m.status = fmt.Sprintf("OS #%d: %s", msg.res.Order.OSNumber, msg.res.Order.Status.Label())
	case msg.res.Changed:
		m.status = "Alteração salva"
	}

	m.reload()

	return m, nil
}

func (m BoardModel) openForm() (tea.Model, tea.Cmd) {
	m.input = &orderInput{}
	m.status = ""
	m.err = nil

	doc := m.app.Snapshot()

	names := make([]string, 0, len(doc.Clients))
	for _, c := range doc.Clients {
		names = append(names, c.Name)
	}

	services := make([]string, 0, len(doc.CatalogServices))
	for _, it := range doc.CatalogServices {
		services = append(services, it.Description)
	}

	parts := make([]string, 0, len(doc.CatalogParts))
	for _, it := range doc.CatalogParts {
		parts = append(parts, it.Description)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(fmt.Sprintf("Nova OS #%d: cliente", m.app.NextOSNumber())).
				Suggestions(names).Value(&m.input.client).Validate(required),
			huh.NewInput().Title("Telefone").Value(&m.input.phone),
			huh.NewInput().Title("Modelo do veículo").Value(&m.input.model),
			huh.NewInput().Title("Placa").Value(&m.input.plate),
			huh.NewInput().Title("Quilometragem").Value(&m.input.mileage).Validate(optionalInt),
		),
		huh.NewGroup(
			huh.NewInput().Title("Serviço").Suggestions(services).Value(&m.input.service),
			huh.NewInput().Title("Valor do serviço (vazio usa o catálogo)").Value(&m.input.servicePrice).Validate(optionalAmount),
			huh.NewInput().Title("Peça").Suggestions(parts).Value(&m.input.part),
			huh.NewInput().Title("Valor da peça (vazio usa o catálogo)").Value(&m.input.partPrice).Validate(optionalAmount),
		),
	).WithWidth(60).WithShowHelp(false)

	m.state = boardForm

	return m, m.form.Init()
}

func (m BoardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.state = boardList
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.state = boardList
		return m, nil
	case huh.StateCompleted:
		save := m.input.command(m.app)
		m.state = boardList

		return m, dispatch(m.app, save, pendingDecision{})
	}

	return m, cmd
}

// command turns the form into a save. Blank prices are taken from the
// catalog when the description is known there.
func (in *orderInput) command(app *workshop.App) workshop.SaveOrder {
	o := workorder.Order{
		ClientName:  strings.TrimSpace(in.client),
		ClientPhone: strings.TrimSpace(in.phone),
	}

	if km, err := strconv.Atoi(strings.TrimSpace(in.mileage)); err == nil {
		o.Mileage = km
	}

	if it, ok := lineItem(app, workshop.KindServices, in.service, in.servicePrice); ok {
		o.Services = append(o.Services, it)
	}

	if it, ok := lineItem(app, workshop.KindParts, in.part, in.partPrice); ok {
		o.Parts = append(o.Parts, it)
	}

	return workshop.SaveOrder{Order: o, VehicleModel: in.model, VehiclePlate: in.plate}
}

func lineItem(app *workshop.App, kind workshop.CatalogKind, description, price string) (workorder.Item, bool) {
	description = strings.TrimSpace(description)
	if description == "" {
		return workorder.Item{}, false
	}

	it := workorder.Item{Description: description}

	if strings.TrimSpace(price) != "" {
		it.Price, _ = money.Parse(price)
	} else if known, ok := app.LookupPrice(kind, description); ok {
		it.Price = known.Price
		it.Cost = known.Cost
	}

	return it, true
}

func (m BoardModel) openDelete(o workorder.Order) (tea.Model, tea.Cmd) {
	m.deleteOK = new(bool)

	title := fmt.Sprintf("Excluir a OS #%d de %s?", o.OSNumber, o.ClientName)
	if o.FinancialID != "" {
		title += " O lançamento no caixa será mantido."
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Affirmative("Excluir").Negative("Cancelar").Value(m.deleteOK),
		),
	).WithWidth(60).WithShowHelp(false)

	m.state = boardDelete

	return m, m.form.Init()
}

func (m BoardModel) updateDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.state = boardList
		return m, nil
	case huh.StateCompleted:
		m.state = boardList

		o, ok := m.selected()
		if !ok || !*m.deleteOK {
			return m, nil
		}

		return m, dispatch(m.app, workshop.DeleteOrder{OrderID: o.ID}, pendingDecision{})
	}

	return m, cmd
}

func (m BoardModel) View() string {
	var content string

	switch m.state {
	case boardForm, boardDelete:
		content = m.form.View() + "\n\n(Esc cancela)"
	case boardConfirm:
		content = m.confirm.form.View()
	default:
		content = boxStyle.Render(m.table.View())

		if len(m.orders) == 0 {
			content += "\n\n" + faintStyle.Render("Nenhuma OS. Pressione n para criar.")
		}

		content += "\n\n" + faintStyle.Render(
			"→/l avançar • ←/h voltar • f finalizar • a arquivar • u restaurar • n nova • x excluir • t arquivadas • esc sair")
	}

	footer := ""

	if m.err != nil {
		footer = "\n\n" + errorStyle.Render("Erro: "+m.err.Error())
	} else if m.status != "" {
		footer = "\n\n" + okStyle.Render(m.status)
	}

	return screenStyle.Render(titleStyle.Render("Ordens de Serviço") + "\n\n" + content + footer)
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("obrigatório")
	}

	return nil
}

func optionalInt(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("número inválido")
	}

	return nil
}

func optionalAmount(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if _, err := money.Parse(s); err != nil {
		return errors.New("valor inválido")
	}

	return nil
}
