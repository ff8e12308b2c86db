// Package statement reads bank statement CSV exports. The layout is
// detected by matching header names against known profiles.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/oficina/internal/encoding"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/money"
)

var dateLayouts = []string{"02/01/2006", "02-01-2006", time.DateOnly}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]ledger.CreateParams, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}

	text, charset, err := encoding.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = separator(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching statement layout found: expected columns for relatório, cartão, extrato or conta")
	}

	slog.Debug("statement layout detected", "profile", profile.Name, "charset", charset, "rows", len(rows)-headerIdx-1)

	return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
}

// separator picks ';' unless the first line only has commas.
func separator(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	if !strings.Contains(first, ";") && strings.Contains(first, ",") {
		return ','
	}

	return ';'
}

type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts movements from data rows. headerRowNum is the 0-based
// index of the header, used in error messages.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]ledger.CreateParams, error) {
	dateIdx := cols[p.DateCol]
	descIdx := cols[p.DescCol]

	var out []ledger.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		date, ok := parseDate(row, dateIdx)
		if !ok {
			continue
		}

		desc := cellValue(row, descIdx)
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		amount, typ, ok := parseAmount(p, cols, row)
		if !ok {
			continue
		}

		out = append(out, ledger.CreateParams{
			Description: desc,
			Amount:      amount,
			Type:        typ,
			Date:        date,
		})
	}

	return out, nil
}

// parseDate returns false for empty cells or footer rows.
func parseDate(row []string, idx int) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func parseAmount(p *Profile, cols colIndex, row []string) (int64, ledger.Type, bool) {
	switch p.AmountMode {
	case amountSingle:
		return parseSingleAmount(row, cols[p.AmountCol])
	case amountSplit:
		return parseSplitAmount(row, cols[p.DebitCol], cols[p.CreditCol])
	case amountTyped:
		return parseTypedAmount(row, cols[p.AmountCol], cols[p.TypeCol])
	}

	return 0, "", false
}

func parseSingleAmount(row []string, idx int) (int64, ledger.Type, bool) {
	cents, ok := cellAmount(row, idx)
	if !ok {
		return 0, "", false
	}

	if cents < 0 {
		return -cents, ledger.TypeDebit, true
	}

	return cents, ledger.TypeCredit, true
}

func parseSplitAmount(row []string, debitIdx, creditIdx int) (int64, ledger.Type, bool) {
	if cents, ok := cellAmount(row, debitIdx); ok {
		return abs(cents), ledger.TypeDebit, true
	}

	if cents, ok := cellAmount(row, creditIdx); ok {
		return abs(cents), ledger.TypeCredit, true
	}

	return 0, "", false
}

func parseTypedAmount(row []string, amountIdx, typeIdx int) (int64, ledger.Type, bool) {
	cents, ok := cellAmount(row, amountIdx)
	if !ok {
		return 0, "", false
	}

	switch strings.ToLower(cellValue(row, typeIdx)) {
	case "receita":
		return abs(cents), ledger.TypeCredit, true
	case "despesa":
		return abs(cents), ledger.TypeDebit, true
	}

	return 0, "", false
}

// cellAmount parses a non-zero amount cell.
func cellAmount(row []string, idx int) (int64, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return 0, false
	}

	cents, err := money.Parse(s)
	if err != nil || cents == 0 {
		return 0, false
	}

	return cents, true
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}

	return n
}
