package statement

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSingle means one signed column (e.g. "Valor" with value "-10,00").
	amountSingle amountMode = iota
	// amountSplit means separate debit and credit columns.
	amountSplit
	// amountTyped means an unsigned amount next to a Receita/Despesa column.
	amountTyped
)

// Profile describes the column layout of a known CSV layout.
type Profile struct {
	Name       string
	DateCol    string
	DescCol    string
	AmountMode amountMode
	AmountCol  string // amountSingle and amountTyped
	DebitCol   string // amountSplit
	CreditCol  string // amountSplit
	TypeCol    string // amountTyped
}

func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountSingle:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	case amountTyped:
		cols = append(cols, p.AmountCol, p.TypeCol)
	}

	return cols
}

// profiles are tried in order; more specific layouts come first.
var profiles = []Profile{
	{
		Name:       "relatório",
		DateCol:    "Data Competência",
		DescCol:    "Descrição",
		AmountMode: amountTyped,
		AmountCol:  "Valor",
		TypeCol:    "Tipo",
	},
	{
		Name:       "cartão",
		DateCol:    "Data",
		DescCol:    "Descrição",
		AmountMode: amountSplit,
		DebitCol:   "Débito",
		CreditCol:  "Crédito",
	},
	{
		Name:       "extrato",
		DateCol:    "Data",
		DescCol:    "Histórico",
		AmountMode: amountSingle,
		AmountCol:  "Valor",
	},
	{
		Name:       "conta",
		DateCol:    "Data Lançamento",
		DescCol:    "Descrição",
		AmountMode: amountSingle,
		AmountCol:  "Valor",
	},
}
