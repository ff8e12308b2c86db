package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/storage"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleData() ([]ledger.Entry, []workorder.Order) {
	created := []ledger.HistoryLine{{Timestamp: date(2026, 3, 1), Note: "Criação inicial"}}

	entries := []ledger.Entry{
		{
			ID: "b2c3d4e5-0000", Description: "Aluguel", Amount: 150000, Type: ledger.TypeDebit,
			EffectiveDate: date(2026, 3, 10), CreatedAt: date(2026, 3, 2), History: created,
		},
		{
			ID: "a1b2c3d4-0000", Description: "OS #7 - Ana; Souza", Amount: 35050, Type: ledger.TypeCredit,
			EffectiveDate: date(2026, 3, 5), CreatedAt: date(2026, 3, 6),
			History: append(created, ledger.HistoryLine{Timestamp: date(2026, 3, 7), Note: "Valor alterado"}),
		},
		{
			ID: "c3d4e5f6-0000", Description: "Peças", Amount: 1000, Type: ledger.TypeDebit,
			EffectiveDate: date(2026, 4, 1), CreatedAt: date(2026, 4, 1), History: created,
		},
	}

	orders := []workorder.Order{
		{ID: "o1", OSNumber: 7, ClientName: "Ana; Souza", FinancialID: "a1b2c3d4-0000"},
		{ID: "o2", OSNumber: 8, ClientName: "Bruno"},
	}

	return entries, orders
}

func TestRows(t *testing.T) {
	entries, orders := sampleData()

	rows := Rows(entries, orders, ledger.Period{Year: 2026, Month: time.March})
	require.Len(t, rows, 2)

	assert.Equal(t, "a1b2c3d4-0000", rows[0].Entry.ID)
	require.NotNil(t, rows[0].Order)
	assert.Equal(t, 7, rows[0].Order.OSNumber)

	assert.Equal(t, "b2c3d4e5-0000", rows[1].Entry.ID)
	assert.Nil(t, rows[1].Order)

	assert.Len(t, Rows(entries, orders, ledger.Period{Year: 2026}), 3)
}

func TestRender(t *testing.T) {
	entries, orders := sampleData()

	out, err := Render(Rows(entries, orders, ledger.Period{Year: 2026, Month: time.March}))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "ID;Data Competência;Data Registro;OS;Cliente;Descrição;Valor;Tipo;Auditado", lines[0])
	assert.Equal(t, `a1b2c3d4;05/03/2026;06/03/2026;7;"Ana; Souza";"OS #7 - Ana; Souza";350,50;Receita;SIM`, lines[1])
	assert.Equal(t, "b2c3d4e5;10/03/2026;02/03/2026;;;Aluguel;1500,00;Despesa;NAO", lines[2])
}

func TestService_Export(t *testing.T) {
	type testCase struct {
		name        string
		setupMocks  func(r *MockReporter)
		expectedErr bool
		verify      func(t *testing.T, res storage.ExportResult)
	}

	tests := []testCase{
		{
			name: "Success",
			setupMocks: func(r *MockReporter) {
				r.EXPECT().
					ExportReport(gomock.Any(), "/relatorios", "relatorio_financeiro_2026-03.csv", gomock.Any()).
					DoAndReturn(func(_ context.Context, _, _, content string) (storage.ExportResult, error) {
						assert.Contains(t, content, "Aluguel")
						assert.NotContains(t, content, "Peças")

						return storage.ExportResult{Success: true, Message: "ok", Path: "/relatorios/x.csv"}, nil
					})
			},
			verify: func(t *testing.T, res storage.ExportResult) {
				assert.True(t, res.Success)
			},
		},
		{
			name: "ReporterFails",
			setupMocks: func(r *MockReporter) {
				r.EXPECT().
					ExportReport(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(storage.ExportResult{Message: "Erro ao exportar"}, errors.New("disk full"))
			},
			expectedErr: true,
			verify: func(t *testing.T, res storage.ExportResult) {
				assert.False(t, res.Success)
				assert.Equal(t, "Erro ao exportar", res.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			reporter := NewMockReporter(ctrl)
			tt.setupMocks(reporter)

			entries, orders := sampleData()

			res, err := NewService(reporter, "/relatorios").
				Export(context.Background(), entries, orders, ledger.Period{Year: 2026, Month: time.March})

			if tt.expectedErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			tt.verify(t, res)
		})
	}
}
