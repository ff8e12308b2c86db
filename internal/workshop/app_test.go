package workshop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/oficina/internal/apperr"
	"github.com/MrJamesThe3rd/oficina/internal/catalog"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/mirror"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

var (
	yes = workorder.Answers{PostRevenue: true, RemoveRevenue: true, DuplicateNumber: true}
	no  = workorder.Answers{}
)

func newApp() *workshop.App {
	svc := ledger.NewServiceWithClock(func() time.Time { return time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC) })
	return workshop.New(svc, workorder.NewEngine(svc))
}

func saveOrder(t *testing.T, app *workshop.App, o workorder.Order) workorder.Order {
	t.Helper()

	res, err := app.Dispatch(context.Background(), no, workshop.SaveOrder{Order: o})
	require.NoError(t, err)
	require.NotNil(t, res.Order)

	return *res.Order
}

func sampleOrder() workorder.Order {
	return workorder.Order{
		ClientName:  "Joao",
		ClientPhone: "11 91234-5678",
		Vehicle:     "Uno - AAA1111",
		Mileage:     120000,
		Parts:       []workorder.Item{{Description: "Filtro de óleo", Price: 3000}},
		Services:    []workorder.Item{{Description: "Troca de óleo", Price: 12000}},
		CreatedAt:   time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestApp_SaveOrder(t *testing.T) {
	app := newApp()

	o := saveOrder(t, app, sampleOrder())

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, 1, o.OSNumber)
	assert.Equal(t, workorder.StatusQuote, o.Status)
	assert.Equal(t, int64(15000), o.Total)

	doc := app.Snapshot()
	require.Len(t, doc.Clients, 1)
	assert.Equal(t, "Joao", doc.Clients[0].Name)
	assert.Equal(t, []catalog.Vehicle{{Model: "Uno", Plate: "AAA1111"}}, doc.Clients[0].Vehicles)
	require.Len(t, doc.CatalogParts, 1)
	require.Len(t, doc.CatalogServices, 1)

	price, ok := app.LookupPrice(workshop.KindServices, "troca de óleo")
	require.True(t, ok)
	assert.Equal(t, int64(12000), price.Price)

	// Edit: totals are recomputed, status is kept.
	o.Services = append(o.Services, workorder.Item{Description: "Alinhamento", Price: 6000})
	o.Status = workorder.StatusFinished
	edited := saveOrder(t, app, o)

	assert.Equal(t, int64(21000), edited.Total)
	assert.Equal(t, workorder.StatusQuote, edited.Status)
	assert.Len(t, app.Snapshot().WorkOrders, 1)
	assert.Len(t, app.Snapshot().CatalogServices, 2)

	// Saving the same data again does not duplicate the client or vehicle.
	saveOrder(t, app, edited)
	assert.Len(t, app.Snapshot().Clients, 1)
	assert.Len(t, app.Snapshot().Clients[0].Vehicles, 1)
	assert.Equal(t, 2, app.NextOSNumber())
}

func TestApp_SaveOrder_Validation(t *testing.T) {
	type testCase struct {
		name  string
		order workorder.Order
	}

	tests := []testCase{
		{name: "MissingClient", order: workorder.Order{}},
		{name: "NegativeMileage", order: workorder.Order{ClientName: "Ana", Mileage: -1}},
		{name: "NegativePrice", order: workorder.Order{ClientName: "Ana", Parts: []workorder.Item{{Description: "x", Price: -1}}}},
		{name: "BlankItem", order: workorder.Order{ClientName: "Ana", Services: []workorder.Item{{Description: " "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()

			_, err := app.Dispatch(context.Background(), no, workshop.SaveOrder{Order: tt.order})
			assert.True(t, apperr.IsValidation(err))
			assert.True(t, app.Empty())
		})
	}
}

func TestApp_SaveOrder_DuplicateNumber(t *testing.T) {
	type testCase struct {
		name      string
		setupMock func(m *workorder.MockDecision)
		wantErr   bool
		wantCount int
	}

	tests := []testCase{
		{
			name: "Declined",
			setupMock: func(m *workorder.MockDecision) {
				m.EXPECT().
					Confirm(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p workorder.Prompt) (bool, error) {
						assert.Equal(t, workorder.QuestionDuplicateNumber, p.Question)
						assert.Equal(t, 1, p.OSNumber)
						return false, nil
					})
			},
			wantErr:   true,
			wantCount: 1,
		},
		{
			name: "Accepted",
			setupMock: func(m *workorder.MockDecision) {
				m.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantCount: 2,
		},
		{
			name: "DecisionFails",
			setupMock: func(m *workorder.MockDecision) {
				m.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(false, errors.New("closed"))
			},
			wantErr:   true,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			app := newApp()
			saveOrder(t, app, sampleOrder())

			mockDecision := workorder.NewMockDecision(ctrl)
			tt.setupMock(mockDecision)

			dup := sampleOrder()
			dup.OSNumber = 1
			dup.ClientName = "Outra pessoa"

			_, err := app.Dispatch(context.Background(), mockDecision, workshop.SaveOrder{Order: dup})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Len(t, app.Snapshot().WorkOrders, tt.wantCount)
			assert.Len(t, app.Snapshot().Clients, tt.wantCount)
		})
	}
}

func TestApp_FinishAndReopen(t *testing.T) {
	ctx := context.Background()
	app := newApp()
	o := saveOrder(t, app, sampleOrder())

	for i := 0; i < 3; i++ {
		_, err := app.Dispatch(ctx, yes, workshop.Advance{OrderID: o.ID})
		require.NoError(t, err)
	}

	finished, ok := app.Order(o.ID)
	require.True(t, ok)
	assert.Equal(t, workorder.StatusFinished, finished.Status)

	doc := app.Snapshot()
	require.Len(t, doc.Ledger, 1)
	assert.Equal(t, finished.FinancialID, doc.Ledger[0].ID)
	assert.Equal(t, int64(15000), doc.Ledger[0].Amount)

	res, err := app.Dispatch(ctx, no, workshop.SetStatus{OrderID: o.ID, Status: workorder.StatusInService})
	require.NoError(t, err)
	assert.True(t, res.Declined)

	still, _ := app.Order(o.ID)
	assert.Equal(t, finished, still)
	assert.Len(t, app.Snapshot().Ledger, 1)

	_, err = app.Dispatch(ctx, yes, workshop.Regress{OrderID: o.ID})
	require.NoError(t, err)

	reopened, _ := app.Order(o.ID)
	assert.Equal(t, workorder.StatusInService, reopened.Status)
	assert.Empty(t, reopened.FinancialID)
	assert.Empty(t, app.Snapshot().Ledger)

	_, err = app.Dispatch(ctx, yes, workshop.Advance{OrderID: "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApp_DeleteEntryClearsLink(t *testing.T) {
	ctx := context.Background()
	app := newApp()
	o := saveOrder(t, app, sampleOrder())

	_, err := app.Dispatch(ctx, yes, workshop.SetStatus{OrderID: o.ID, Status: workorder.StatusFinished})
	require.NoError(t, err)

	linked, _ := app.Order(o.ID)
	require.NotEmpty(t, linked.FinancialID)

	_, err = app.Dispatch(ctx, no, workshop.DeleteEntry{EntryID: linked.FinancialID})
	require.NoError(t, err)

	after, _ := app.Order(o.ID)
	assert.Empty(t, after.FinancialID)
	assert.Equal(t, workorder.StatusFinished, after.Status)

	_, err = app.Dispatch(ctx, no, workshop.DeleteEntry{EntryID: linked.FinancialID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApp_EntriesAndGroups(t *testing.T) {
	ctx := context.Background()
	app := newApp()

	res, err := app.Dispatch(ctx, no, workshop.AddEntry{Params: ledger.RecurrenceParams{
		Description: "Elevador",
		Total:       100000,
		Type:        ledger.TypeDebit,
		Start:       time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Mode:        ledger.ModeInstallment,
		Count:       4,
	}})
	require.NoError(t, err)
	require.Len(t, res.Entries, 4)

	amount := int64(30000)
	amended, err := app.Dispatch(ctx, no, workshop.AmendEntry{
		EntryID: res.Entries[0].ID,
		Params:  ledger.AmendParams{Amount: &amount, Actor: "ana", Reason: "juros"},
	})
	require.NoError(t, err)
	assert.True(t, amended.Changed)
	assert.True(t, amended.Entries[0].Audited())

	same, err := app.Dispatch(ctx, no, workshop.AmendEntry{EntryID: res.Entries[0].ID, Params: ledger.AmendParams{Amount: &amount}})
	require.NoError(t, err)
	assert.False(t, same.Changed)

	_, err = app.Dispatch(ctx, no, workshop.DeleteGroup{GroupID: res.Entries[0].GroupID})
	require.NoError(t, err)
	assert.Empty(t, app.Snapshot().Ledger)

	_, err = app.Dispatch(ctx, no, workshop.AddEntry{Params: ledger.RecurrenceParams{Description: "x", Total: 0, Type: ledger.TypeDebit}})
	assert.True(t, apperr.IsValidation(err))
}

func TestApp_ImportEntries(t *testing.T) {
	app := newApp()
	ctx := context.Background()

	changes := 0
	app.OnChange(func() { changes++ })

	params := []ledger.CreateParams{
		{Description: "PIX cliente", Amount: 45000, Type: ledger.TypeCredit, Date: time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)},
		{Description: "Tarifa", Amount: 1990, Type: ledger.TypeDebit, Date: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)},
	}

	res, err := app.Dispatch(ctx, no, workshop.ImportEntries{Params: params})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 1, changes)

	res, err = app.Dispatch(ctx, no, workshop.ImportEntries{Params: params})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Len(t, res.Conflicts, 2)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, changes)

	res, err = app.Dispatch(ctx, no, workshop.ImportEntries{Params: params[1:], Force: true})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)
	assert.Len(t, app.Snapshot().Ledger, 3)

	_, err = app.Dispatch(ctx, no, workshop.ImportEntries{Params: []ledger.CreateParams{{Description: "x", Type: ledger.TypeCredit}}})
	assert.True(t, apperr.IsValidation(err))
	assert.Len(t, app.Snapshot().Ledger, 3)
}

func TestApp_UpdateClientCascades(t *testing.T) {
	ctx := context.Background()
	app := newApp()

	o := saveOrder(t, app, sampleOrder())
	other := sampleOrder()
	other.ClientName = "Maria"
	other.Vehicle = "Gol - BBB2222"
	saveOrder(t, app, other)

	_, err := app.Dispatch(ctx, yes, workshop.SetStatus{OrderID: o.ID, Status: workorder.StatusFinished})
	require.NoError(t, err)

	joao, ok := app.LookupClient("joao")
	require.True(t, ok)

	joao.Name = "João Silva"
	joao.Vehicles = []catalog.Vehicle{{Model: "Uno Mille", Plate: "AAA1111"}}

	_, err = app.Dispatch(ctx, no, workshop.UpdateClient{Client: joao})
	require.NoError(t, err)

	doc := app.Snapshot()
	assert.Equal(t, "João Silva", doc.WorkOrders[0].ClientName)
	assert.Equal(t, "Uno Mille - AAA1111", doc.WorkOrders[0].Vehicle)
	assert.Equal(t, "Maria", doc.WorkOrders[1].ClientName)
	assert.Equal(t, "OS #1 - João Silva", doc.Ledger[0].Description)

	_, ok = app.LookupClient("João Silva")
	assert.True(t, ok)

	maria, _ := app.LookupClient("maria")
	maria.Name = "joão silva"
	_, err = app.Dispatch(ctx, no, workshop.UpdateClient{Client: maria})
	assert.True(t, apperr.IsValidation(err))

	_, err = app.Dispatch(ctx, no, workshop.UpdateClient{Client: catalog.Client{ID: "nope", Name: "x"}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApp_CatalogItems(t *testing.T) {
	ctx := context.Background()
	app := newApp()
	saveOrder(t, app, sampleOrder())

	_, err := app.Dispatch(ctx, no, workshop.UpdateCatalogItem{
		Kind:        workshop.KindParts,
		Description: "filtro de óleo",
		Item:        catalog.Item{Description: "Filtro de óleo Tecfil", Price: 4500},
	})
	require.NoError(t, err)

	doc := app.Snapshot()
	assert.Equal(t, "Filtro de óleo Tecfil", doc.CatalogParts[0].Description)
	assert.Equal(t, int64(4500), doc.CatalogParts[0].Price)
	assert.Equal(t, "Filtro de óleo Tecfil", doc.WorkOrders[0].Parts[0].Description)
	assert.Equal(t, int64(3000), doc.WorkOrders[0].Parts[0].Price)

	_, err = app.Dispatch(ctx, no, workshop.UpdateCatalogItem{Kind: "tools", Description: "x"})
	assert.True(t, apperr.IsValidation(err))

	_, err = app.Dispatch(ctx, no, workshop.DeleteCatalogItem{Kind: workshop.KindServices, Description: "TROCA DE ÓLEO"})
	require.NoError(t, err)
	assert.Empty(t, app.Snapshot().CatalogServices)

	_, ok := app.LookupPrice(workshop.KindServices, "troca de óleo")
	assert.False(t, ok)
}

func TestApp_ChecklistAndDelete(t *testing.T) {
	ctx := context.Background()
	app := newApp()
	o := saveOrder(t, app, sampleOrder())

	notes := "Cliente aguarda no local"
	cl := workorder.DefaultChecklist()
	cl.FuelLevel = 50

	res, err := app.Dispatch(ctx, no, workshop.UpdateChecklist{OrderID: o.ID, Checklist: cl, PublicNotes: &notes})
	require.NoError(t, err)
	require.NotNil(t, res.Order.Checklist)
	assert.Equal(t, 50, res.Order.Checklist.FuelLevel)
	assert.Equal(t, notes, res.Order.PublicNotes)

	edited := sampleOrder()
	edited.ID = o.ID
	edited.OSNumber = o.OSNumber
	edited.Mileage = 121000

	saved := saveOrder(t, app, edited)
	require.NotNil(t, saved.Checklist)
	assert.Equal(t, 50, saved.Checklist.FuelLevel)
	assert.Equal(t, notes, saved.PublicNotes)

	cl.FuelLevel = 140
	_, err = app.Dispatch(ctx, no, workshop.UpdateChecklist{OrderID: o.ID, Checklist: cl})
	assert.True(t, apperr.IsValidation(err))

	_, err = app.Dispatch(ctx, no, workshop.DeleteOrder{OrderID: o.ID})
	require.NoError(t, err)
	assert.Empty(t, app.Snapshot().WorkOrders)
	assert.Len(t, app.Snapshot().Clients, 1)
}

func TestApp_Observers(t *testing.T) {
	ctx := context.Background()
	app := newApp()

	calls := 0
	app.OnChange(func() { calls++ })

	o := saveOrder(t, app, sampleOrder())
	assert.Equal(t, 1, calls)

	_, err := app.Dispatch(ctx, no, workshop.SetStatus{OrderID: o.ID, Status: workorder.StatusQuote})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = app.Dispatch(ctx, no, workshop.SaveOrder{})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)

	_, err = app.Dispatch(ctx, no, workshop.UpdateSettings{Settings: workshop.Settings{Name: "Oficina do Zé"}})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Oficina do Zé", app.Snapshot().Settings.Name)
}

func TestApp_Records(t *testing.T) {
	ctx := context.Background()
	app := newApp()
	saveOrder(t, app, sampleOrder())

	parts, err := app.Records(ctx, mirror.CatalogParts)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "filtro de óleo", parts[0].Key)

	orders, err := app.Records(ctx, mirror.WorkOrders)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	target := newApp()
	require.NoError(t, target.ReplaceRecords(ctx, mirror.WorkOrders, orders))
	require.NoError(t, target.ReplaceRecords(ctx, mirror.CatalogParts, parts))

	assert.Equal(t, app.Snapshot().WorkOrders, target.Snapshot().WorkOrders)
	_, ok := target.LookupPrice(workshop.KindParts, "Filtro de óleo")
	assert.True(t, ok)

	_, err = app.Records(ctx, "invoices")
	assert.Error(t, err)
}

func TestApp_ReplaceRecordsUnlinksMissingEntries(t *testing.T) {
	type testCase struct {
		name           string
		replace        func(t *testing.T, source *workshop.App) *workshop.App
		expectedLinked bool
	}

	records := func(t *testing.T, app *workshop.App, c mirror.Collection) []mirror.Record {
		t.Helper()

		r, err := app.Records(context.Background(), c)
		require.NoError(t, err)

		return r
	}

	tests := []testCase{
		{
			name: "LedgerReplacedWithoutEntry",
			replace: func(t *testing.T, source *workshop.App) *workshop.App {
				require.NoError(t, source.ReplaceRecords(context.Background(), mirror.Ledger, nil))
				return source
			},
		},
		{
			name: "OrdersPulledBeforeTheirEntries",
			replace: func(t *testing.T, source *workshop.App) *workshop.App {
				target := newApp()
				require.NoError(t, target.ReplaceRecords(context.Background(), mirror.WorkOrders, records(t, source, mirror.WorkOrders)))

				return target
			},
		},
		{
			name: "LedgerThenOrdersKeepLink",
			replace: func(t *testing.T, source *workshop.App) *workshop.App {
				target := newApp()
				require.NoError(t, target.ReplaceRecords(context.Background(), mirror.Ledger, records(t, source, mirror.Ledger)))
				require.NoError(t, target.ReplaceRecords(context.Background(), mirror.WorkOrders, records(t, source, mirror.WorkOrders)))

				return target
			},
			expectedLinked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			app := newApp()
			o := saveOrder(t, app, sampleOrder())

			_, err := app.Dispatch(ctx, yes, workshop.SetStatus{OrderID: o.ID, Status: workorder.StatusFinished})
			require.NoError(t, err)

			target := tt.replace(t, app)

			got, ok := target.Order(o.ID)
			require.True(t, ok)
			assert.Equal(t, workorder.StatusFinished, got.Status)

			if !tt.expectedLinked {
				assert.Empty(t, got.FinancialID)
				return
			}

			require.NotEmpty(t, got.FinancialID)

			doc := target.Snapshot()
			require.Len(t, doc.Ledger, 1)
			assert.Equal(t, doc.Ledger[0].ID, got.FinancialID)
		})
	}
}

func TestApp_Summarize(t *testing.T) {
	ctx := context.Background()
	app := newApp()

	o := saveOrder(t, app, sampleOrder())
	_, err := app.Dispatch(ctx, yes, workshop.SetStatus{OrderID: o.ID, Status: workorder.StatusFinished})
	require.NoError(t, err)

	_, err = app.Dispatch(ctx, no, workshop.AddEntry{Params: ledger.RecurrenceParams{
		Description: "Aluguel",
		Total:       5000,
		Type:        ledger.TypeDebit,
		Start:       time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	s := app.Summarize(ledger.Period{Year: 2026, Month: time.May})

	assert.Equal(t, "2026-05", s.Period)
	assert.Equal(t, int64(15000), s.Revenue)
	assert.Equal(t, int64(5000), s.Expense)
	assert.Equal(t, int64(10000), s.Balance)
	assert.Equal(t, 1, s.FinishedOrders)
	assert.Equal(t, int64(15000), s.AverageTicket)

	empty := app.Summarize(ledger.Period{Year: 2025})
	assert.Zero(t, empty.AverageTicket)
}
