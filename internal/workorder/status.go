package workorder

import "fmt"

type Status string

const (
	StatusQuote     Status = "ORCAMENTO"
	StatusApproved  Status = "APROVADO"
	StatusInService Status = "EM_SERVICO"
	StatusFinished  Status = "FINALIZADO"
	StatusArchived  Status = "ARQUIVADO"
)

// Flow is the linear lifecycle. Archived sits outside it.
var Flow = []Status{StatusQuote, StatusApproved, StatusInService, StatusFinished}

var labels = map[Status]string{
	StatusQuote:     "Orçamento",
	StatusApproved:  "Aprovado",
	StatusInService: "Em Serviço",
	StatusFinished:  "Finalizado",
	StatusArchived:  "Arquivado",
}

func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}

	return string(s)
}

func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}

	return st, nil
}

func position(s Status) int {
	for i, f := range Flow {
		if f == s {
			return i
		}
	}

	return -1
}

// Next is the status one step forward, or s itself at the end of the flow.
func (s Status) Next() Status {
	i := position(s)
	if i < 0 || i == len(Flow)-1 {
		return s
	}

	return Flow[i+1]
}

// Prev is the status one step back, or s itself at the start of the flow.
func (s Status) Prev() Status {
	i := position(s)
	if i <= 0 {
		return s
	}

	return Flow[i-1]
}
