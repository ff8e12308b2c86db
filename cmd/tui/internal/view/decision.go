package view

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

// confirmNeeded stops a command at a question the user has not answered
// yet. The command fails without touching state and is dispatched again
// once the answer is known.
type confirmNeeded struct {
	prompt workorder.Prompt
}

func (e *confirmNeeded) Error() string {
	return fmt.Sprintf("confirmation needed: %s", e.prompt.Question)
}

// pendingDecision replies with the answers collected so far.
type pendingDecision map[workorder.Question]bool

func (d pendingDecision) Confirm(_ context.Context, p workorder.Prompt) (bool, error) {
	if v, ok := d[p.Question]; ok {
		return v, nil
	}

	return false, &confirmNeeded{prompt: p}
}

type dispatchedMsg struct {
	cmd      workshop.Command
	answered pendingDecision
	res      workshop.Result
	err      error
}

// prompt returns the question that interrupted the command, if any.
func (m dispatchedMsg) prompt() (workorder.Prompt, bool) {
	var cn *confirmNeeded
	if errors.As(m.err, &cn) {
		return cn.prompt, true
	}

	return workorder.Prompt{}, false
}

func dispatch(app *workshop.App, cmd workshop.Command, answered pendingDecision) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opCtx()
		defer cancel()

		res, err := app.Dispatch(ctx, answered, cmd)

		return dispatchedMsg{cmd: cmd, answered: answered, res: res, err: err}
	}
}

// confirmation is an open yes/no question about an interrupted command.
type confirmation struct {
	msg    dispatchedMsg
	prompt workorder.Prompt
	answer *bool
	form   *huh.Form
}

func newConfirmation(msg dispatchedMsg, p workorder.Prompt) *confirmation {
	c := &confirmation{msg: msg, prompt: p, answer: new(bool)}
	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(p.Message).
				Affirmative("Sim").
				Negative("Não").
				Value(c.answer),
		),
	).WithWidth(60).WithShowHelp(false)

	return c
}

// update feeds msg to the form. When the user answered, it returns the
// command to retry.
func (c *confirmation) update(app *workshop.App, msg tea.Msg) (tea.Cmd, bool) {
	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State != huh.StateCompleted {
		return cmd, false
	}

	answered := make(pendingDecision, len(c.msg.answered)+1)
	for q, v := range c.msg.answered {
		answered[q] = v
	}

	answered[c.prompt.Question] = *c.answer

	return dispatch(app, c.msg.cmd, answered), true
}
