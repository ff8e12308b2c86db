package workorder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/oficina/internal/apperr"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

func clock() time.Time {
	return time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
}

func newEngine() *workorder.Engine {
	return workorder.NewEngine(ledger.NewServiceWithClock(clock))
}

func order(status workorder.Status) workorder.Order {
	return workorder.Order{
		ID:         "os-1",
		OSNumber:   7,
		Status:     status,
		ClientName: "Maria",
		Vehicle:    "Gol - ABC1234",
		Parts:      []workorder.Item{{ID: "p1", Description: "Filtro", Price: 5000}},
		Services:   []workorder.Item{{ID: "s1", Description: "Troca de óleo", Price: 10000}},
		Total:      15000,
		CreatedAt:  time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestEngine_SetStatus(t *testing.T) {
	existing := ledger.Entry{ID: "e-1", Description: "OS #7 - Maria", Amount: 15000, Type: ledger.TypeCredit}

	type testCase struct {
		name      string
		order     workorder.Order
		target    workorder.Status
		entries   []ledger.Entry
		setupMock func(m *workorder.MockDecision)
		verify    func(t *testing.T, in workorder.Order, out workorder.Outcome)
		wantErr   bool
	}

	tests := []testCase{
		{
			name:      "SameStatusIsNoop",
			order:     order(workorder.StatusApproved),
			target:    workorder.StatusApproved,
			setupMock: func(m *workorder.MockDecision) {},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, in, out.Order)
				assert.False(t, out.Changed)
				assert.Empty(t, out.Ledger)
			},
		},
		{
			name:      "SameStatusFinishedIsNoop",
			order:     func() workorder.Order { o := order(workorder.StatusFinished); o.FinancialID = "e-1"; return o }(),
			target:    workorder.StatusFinished,
			entries:   []ledger.Entry{existing},
			setupMock: func(m *workorder.MockDecision) {},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, in, out.Order)
				assert.Equal(t, []ledger.Entry{existing}, out.Ledger)
			},
		},
		{
			name:      "PlainMoveHasNoSideEffects",
			order:     order(workorder.StatusQuote),
			target:    workorder.StatusInService,
			setupMock: func(m *workorder.MockDecision) {},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, workorder.StatusInService, out.Order.Status)
				assert.True(t, out.Changed)
				assert.Empty(t, out.Ledger)
			},
		},
		{
			name:   "FinishWithConsentPostsRevenue",
			order:  order(workorder.StatusInService),
			target: workorder.StatusFinished,
			setupMock: func(m *workorder.MockDecision) {
				m.EXPECT().
					Confirm(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p workorder.Prompt) (bool, error) {
						assert.Equal(t, workorder.QuestionPostRevenue, p.Question)
						assert.Equal(t, int64(15000), p.Amount)
						return true, nil
					})
			},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				require.Len(t, out.Ledger, 1)
				e := out.Ledger[0]
				assert.Equal(t, ledger.TypeCredit, e.Type)
				assert.Equal(t, int64(15000), e.Amount)
				assert.Equal(t, in.CreatedAt, e.EffectiveDate)
				assert.Equal(t, "OS #7 - Maria", e.Description)
				assert.Equal(t, e.ID, out.Order.FinancialID)
				assert.Equal(t, workorder.StatusFinished, out.Order.Status)
			},
		},
		{
			name:   "FinishWithRefusalStillChangesStatus",
			order:  order(workorder.StatusInService),
			target: workorder.StatusFinished,
			setupMock: func(m *workorder.MockDecision) {
				m.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, workorder.StatusFinished, out.Order.Status)
				assert.Empty(t, out.Order.FinancialID)
				assert.Empty(t, out.Ledger)
				assert.False(t, out.Declined)
			},
		},
		{
			name:      "RefinishKeepsExistingEntry",
			order:     func() workorder.Order { o := order(workorder.StatusInService); o.FinancialID = "e-1"; return o }(),
			target:    workorder.StatusFinished,
			entries:   []ledger.Entry{existing},
			setupMock: func(m *workorder.MockDecision) {},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, "e-1", out.Order.FinancialID)
				assert.Len(t, out.Ledger, 1)
			},
		},
		{
			name:   "ZeroTotalPostsNothing",
			order:  func() workorder.Order { o := order(workorder.StatusInService); o.Parts, o.Services, o.Total = nil, nil, 0; return o }(),
			target: workorder.StatusFinished,
			setupMock: func(m *workorder.MockDecision) {
				m.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, workorder.StatusFinished, out.Order.Status)
				assert.Empty(t, out.Order.FinancialID)
				assert.Empty(t, out.Ledger)
			},
		},
		{
			name:    "ReopenWithConsentRemovesRevenue",
			order:   func() workorder.Order { o := order(workorder.StatusFinished); o.FinancialID = "e-1"; return o }(),
			target:  workorder.StatusInService,
			entries: []ledger.Entry{existing, {ID: "e-2", Amount: 1, Type: ledger.TypeDebit}},
			setupMock: func(m *workorder.MockDecision) {
				m.EXPECT().
					Confirm(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p workorder.Prompt) (bool, error) {
						assert.Equal(t, workorder.QuestionRemoveRevenue, p.Question)
						return true, nil
					})
			},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, workorder.StatusInService, out.Order.Status)
				assert.Empty(t, out.Order.FinancialID)
				require.Len(t, out.Ledger, 1)
				assert.Equal(t, "e-2", out.Ledger[0].ID)
			},
		},
		{
			name:    "ReopenWithRefusalAborts",
			order:   func() workorder.Order { o := order(workorder.StatusFinished); o.FinancialID = "e-1"; return o }(),
			target:  workorder.StatusQuote,
			entries: []ledger.Entry{existing},
			setupMock: func(m *workorder.MockDecision) {
				m.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.True(t, out.Declined)
				assert.False(t, out.Changed)
				assert.Equal(t, in, out.Order)
				assert.Equal(t, []ledger.Entry{existing}, out.Ledger)
			},
		},
		{
			name:      "ReopenWithoutEntryDoesNotAsk",
			order:     order(workorder.StatusFinished),
			target:    workorder.StatusApproved,
			setupMock: func(m *workorder.MockDecision) {},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, workorder.StatusApproved, out.Order.Status)
			},
		},
		{
			name:      "ArchiveFinishedKeepsRevenue",
			order:     func() workorder.Order { o := order(workorder.StatusFinished); o.FinancialID = "e-1"; return o }(),
			target:    workorder.StatusArchived,
			entries:   []ledger.Entry{existing},
			setupMock: func(m *workorder.MockDecision) {},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, workorder.StatusArchived, out.Order.Status)
				assert.Equal(t, workorder.StatusFinished, out.Order.PreviousStatus)
				assert.Equal(t, "e-1", out.Order.FinancialID)
				assert.Len(t, out.Ledger, 1)
			},
		},
		{
			name:      "LeaveArchivedIntoFinishedDoesNotAsk",
			order:     order(workorder.StatusArchived),
			target:    workorder.StatusFinished,
			setupMock: func(m *workorder.MockDecision) {},
			verify: func(t *testing.T, in workorder.Order, out workorder.Outcome) {
				assert.Equal(t, workorder.StatusFinished, out.Order.Status)
				assert.Empty(t, out.Ledger)
			},
		},
		{
			name:      "UnknownTarget",
			order:     order(workorder.StatusQuote),
			target:    "CANCELADO",
			setupMock: func(m *workorder.MockDecision) {},
			wantErr:   true,
		},
		{
			name:   "DecisionError",
			order:  order(workorder.StatusInService),
			target: workorder.StatusFinished,
			setupMock: func(m *workorder.MockDecision) {
				m.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(false, errors.New("dialog closed"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockDecision := workorder.NewMockDecision(ctrl)
			tt.setupMock(mockDecision)

			out, err := newEngine().SetStatus(context.Background(), mockDecision, tt.order, tt.target, tt.entries)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.order, out.Order)
				return
			}

			require.NoError(t, err)
			tt.verify(t, tt.order, out)
		})
	}
}

func TestEngine_UnknownTargetIsValidation(t *testing.T) {
	_, err := newEngine().SetStatus(context.Background(), workorder.Answers{}, order(workorder.StatusQuote), "X", nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestEngine_FinishAndReopenScenario(t *testing.T) {
	ctx := context.Background()
	engine := newEngine()
	yes := workorder.Answers{PostRevenue: true, RemoveRevenue: true}

	o := workorder.Order{
		ID:        "os-42",
		OSNumber:  42,
		Status:    workorder.StatusQuote,
		Services:  []workorder.Item{{Description: "Revisão", Price: 15000}},
		CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}.Recalculate()
	require.Equal(t, int64(15000), o.Total)

	var entries []ledger.Entry

	for o.Status != workorder.StatusFinished {
		out, err := engine.Advance(ctx, yes, o, entries)
		require.NoError(t, err)
		require.True(t, out.Changed)

		o, entries = out.Order, out.Ledger
	}

	require.Len(t, entries, 1)
	assert.Equal(t, ledger.TypeCredit, entries[0].Type)
	assert.Equal(t, int64(15000), entries[0].Amount)
	assert.Equal(t, entries[0].ID, o.FinancialID)

	// Advancing past the end is a no-op.
	out, err := engine.Advance(ctx, yes, o, entries)
	require.NoError(t, err)
	assert.False(t, out.Changed)

	out, err = engine.Regress(ctx, yes, o, entries)
	require.NoError(t, err)

	assert.Equal(t, workorder.StatusInService, out.Order.Status)
	assert.Empty(t, out.Order.FinancialID)
	assert.Empty(t, out.Ledger)
}

func TestEngine_ArchiveRestore(t *testing.T) {
	engine := newEngine()
	o := order(workorder.StatusInService)

	archived := engine.Archive(o, nil)
	require.True(t, archived.Changed)
	assert.Equal(t, workorder.StatusArchived, archived.Order.Status)

	again := engine.Archive(archived.Order, nil)
	assert.False(t, again.Changed)

	out, err := engine.Advance(context.Background(), workorder.Answers{}, archived.Order, nil)
	require.NoError(t, err)
	assert.False(t, out.Changed)

	restored := engine.Restore(archived.Order, nil)
	assert.Equal(t, workorder.StatusInService, restored.Order.Status)
	assert.Empty(t, restored.Order.PreviousStatus)

	legacy := order(workorder.StatusArchived)
	assert.Equal(t, workorder.StatusQuote, engine.Restore(legacy, nil).Order.Status)
}
