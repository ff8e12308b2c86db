// Package export renders the ledger of one competency period as a
// semicolon separated report and hands it to the storage collaborator.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/money"
	"github.com/MrJamesThe3rd/oficina/internal/storage"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=export
type Reporter interface {
	ExportReport(ctx context.Context, folder, filename, content string) (storage.ExportResult, error)
}

var header = []string{
	"ID", "Data Competência", "Data Registro", "OS", "Cliente",
	"Descrição", "Valor", "Tipo", "Auditado",
}

// Row is one ledger entry joined with the order that posted it, if any.
type Row struct {
	Entry ledger.Entry
	Order *workorder.Order
}

// Rows selects the entries of p ordered by competency then registration
// date, each joined with the order whose financialId points at it.
func Rows(entries []ledger.Entry, orders []workorder.Order, p ledger.Period) []Row {
	byFinancial := make(map[string]int, len(orders))

	for i, o := range orders {
		if o.FinancialID != "" {
			byFinancial[o.FinancialID] = i
		}
	}

	selected := ledger.Filter(entries, p, "")

	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.Before(b.EffectiveDate)
		}

		return a.CreatedAt.Before(b.CreatedAt)
	})

	rows := make([]Row, 0, len(selected))

	for _, e := range selected {
		row := Row{Entry: e}

		if i, ok := byFinancial[e.ID]; ok {
			o := orders[i]
			row.Order = &o
		}

		rows = append(rows, row)
	}

	return rows
}

func (r Row) record() []string {
	var osNumber, client string

	if r.Order != nil {
		osNumber = strconv.Itoa(r.Order.OSNumber)
		client = r.Order.ClientName
	}

	id := r.Entry.ID
	if len(id) > 8 {
		id = id[:8]
	}

	typ := "Despesa"
	if r.Entry.Type == ledger.TypeCredit {
		typ = "Receita"
	}

	audited := "NAO"
	if r.Entry.Audited() {
		audited = "SIM"
	}

	return []string{
		id,
		r.Entry.EffectiveDate.Format("02/01/2006"),
		r.Entry.CreatedAt.Format("02/01/2006"),
		osNumber,
		client,
		r.Entry.Description,
		money.Decimal(r.Entry.Amount),
		typ,
		audited,
	}
}

// Render writes rows as CSV with a header line.
func Render(rows []Row) (string, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}

	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return "", fmt.Errorf("writing entry %s: %w", r.Entry.ID, err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing report: %w", err)
	}

	return buf.String(), nil
}

func Filename(p ledger.Period) string {
	return fmt.Sprintf("relatorio_financeiro_%s.csv", p)
}

type Service struct {
	reporter Reporter
	folder   string
}

func NewService(reporter Reporter, folder string) *Service {
	return &Service{reporter: reporter, folder: folder}
}

// Export renders the report for p and saves it in the configured folder.
// The result message is meant for the user in both outcomes.
func (s *Service) Export(ctx context.Context, entries []ledger.Entry, orders []workorder.Order, p ledger.Period) (storage.ExportResult, error) {
	rows := Rows(entries, orders, p)

	content, err := Render(rows)
	if err != nil {
		return storage.ExportResult{Message: "Erro ao gerar relatório"}, fmt.Errorf("rendering report: %w", err)
	}

	res, err := s.reporter.ExportReport(ctx, s.folder, Filename(p), content)
	if err != nil {
		slog.Warn("failed to export report", "period", p.String(), "error", err)
		return res, fmt.Errorf("exporting report: %w", err)
	}

	slog.Info("report exported", "period", p.String(), "entries", len(rows), "path", res.Path)

	return res, nil
}
