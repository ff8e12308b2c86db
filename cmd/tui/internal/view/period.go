package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/oficina/internal/ledger"
)

// Preset is a predefined competency period choice.
type Preset int

const (
	PresetThisMonth Preset = iota
	PresetLastMonth
	PresetThisYear
	PresetCustom
)

func (p Preset) String() string {
	switch p {
	case PresetThisMonth:
		return "Este mês"
	case PresetLastMonth:
		return "Mês passado"
	case PresetThisYear:
		return "Este ano"
	case PresetCustom:
		return "Outro período"
	}

	return "?"
}

// presetPeriod resolves a preset relative to now.
func presetPeriod(p Preset, now time.Time) ledger.Period {
	switch p {
	case PresetLastMonth:
		return ledger.MonthOf(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0))
	case PresetThisYear:
		return ledger.Period{Year: now.Year()}
	default:
		return ledger.MonthOf(now)
	}
}

// PeriodSelectedMsg is emitted once the user picked a period.
type PeriodSelectedMsg struct {
	Period ledger.Period
}

// PeriodPicker selects a competency month or year.
type PeriodPicker struct {
	selected Preset
	custom   bool
	input    textinput.Model
	err      error
	now      func() time.Time
}

func NewPeriodPicker() PeriodPicker {
	in := textinput.New()
	in.Placeholder = "AAAA-MM ou AAAA"
	in.CharLimit = 7
	in.Width = 10
	in.Prompt = "Período: "

	return PeriodPicker{input: in, now: time.Now}
}

func (m PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)

	if m.custom {
		if ok {
			switch key.Type {
			case tea.KeyEnter:
				p, err := ledger.ParsePeriod(strings.TrimSpace(m.input.Value()))
				if err != nil {
					m.err = fmt.Errorf("período inválido, use AAAA-MM ou AAAA")
					return m, nil
				}

				m.err = nil

				return m, selectPeriod(p)
			case tea.KeyEsc:
				m.custom = false
				m.err = nil

				return m, nil
			}
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)

		return m, cmd
	}

	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyUp:
		if m.selected > PresetThisMonth {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < PresetCustom {
			m.selected++
		}
	case tea.KeyEnter:
		if m.selected == PresetCustom {
			m.custom = true
			m.input.Focus()

			return m, textinput.Blink
		}

		return m, selectPeriod(presetPeriod(m.selected, m.now()))
	}

	return m, nil
}

func selectPeriod(p ledger.Period) tea.Cmd {
	return func() tea.Msg {
		return PeriodSelectedMsg{Period: p}
	}
}

// IsSelecting reports whether the picker shows the preset list.
func (m PeriodPicker) IsSelecting() bool {
	return !m.custom
}

func (m *PeriodPicker) Reset() {
	m.custom = false
	m.selected = PresetThisMonth
	m.err = nil
	m.input.SetValue("")
}

func (m PeriodPicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = "\n\n" + errorStyle.Render(m.err.Error())
	}

	if m.custom {
		return fmt.Sprintf("Informe o período:\n\n%s\n\n(Enter confirma, Esc volta)%s", m.input.View(), errStr)
	}

	var b strings.Builder

	b.WriteString("Selecione o período:\n\n")

	for p := PresetThisMonth; p <= PresetCustom; p++ {
		cursor := " "
		if p == m.selected {
			cursor = ">"
		}

		fmt.Fprintf(&b, "%s %s\n", cursor, p)
	}

	b.WriteString("\n(Enter seleciona, Esc volta)")

	return b.String() + errStr
}
