package workorder

import (
	"context"
)

// Question identifies what the user is being asked to confirm.
type Question string

const (
	QuestionPostRevenue     Question = "post-revenue"
	QuestionRemoveRevenue   Question = "remove-revenue"
	QuestionDuplicateNumber Question = "duplicate-number"
)

// Prompt is everything a front end needs to render a confirmation.
type Prompt struct {
	Question Question
	OrderID  string
	OSNumber int
	Amount   int64
	Message  string
}

//go:generate mockgen -source=decision.go -destination=decision_mock.go -package=workorder
type Decision interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// DecisionFunc adapts a plain function to Decision.
type DecisionFunc func(ctx context.Context, p Prompt) (bool, error)

func (f DecisionFunc) Confirm(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}

// Answers is a Decision whose replies were collected up front, as HTTP
// requests and CLI flags do.
type Answers struct {
	PostRevenue     bool `json:"postRevenue"`
	RemoveRevenue   bool `json:"removeRevenue"`
	DuplicateNumber bool `json:"duplicateNumber"`
}

func (a Answers) Confirm(_ context.Context, p Prompt) (bool, error) {
	switch p.Question {
	case QuestionPostRevenue:
		return a.PostRevenue, nil
	case QuestionRemoveRevenue:
		return a.RemoveRevenue, nil
	case QuestionDuplicateNumber:
		return a.DuplicateNumber, nil
	default:
		return false, nil
	}
}
