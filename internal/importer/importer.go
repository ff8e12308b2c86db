// Package importer turns files produced elsewhere into ledger movements.
package importer

import (
	"io"

	"github.com/MrJamesThe3rd/oficina/internal/ledger"
)

type Format string

const (
	// FormatStatement is a bank statement or card bill CSV, or a report
	// previously exported by this application.
	FormatStatement Format = "statement"
)

type Importer interface {
	Parse(r io.Reader) ([]ledger.CreateParams, error)
}
