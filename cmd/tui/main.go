package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/oficina/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/oficina/internal/bootstrap"
	"github.com/MrJamesThe3rd/oficina/internal/config"
)

const statusRefresh = time.Second

type model struct {
	rt      *bootstrap.Runtime
	appName string

	currentView View
	size        tea.WindowSizeMsg

	boardView  view.BoardModel
	ledgerView view.LedgerModel
	exportView view.ExportModel
	syncView   view.SyncModel
	importView view.ImportModel
}

type View int

const (
	ViewMenu   View = 0
	ViewBoard  View = 1
	ViewLedger View = 2
	ViewExport View = 3
	ViewSync   View = 4
	ViewImport View = 5
)

type statusTickMsg struct{}

func statusTick() tea.Cmd {
	return tea.Tick(statusRefresh, func(time.Time) tea.Msg {
		return statusTickMsg{}
	})
}

func initialModel(rt *bootstrap.Runtime, cfg *config.Config) model {
	return model{
		rt:          rt,
		appName:     cfg.App.Name,
		currentView: ViewMenu,
		boardView:   view.NewBoardModel(rt.App),
		ledgerView:  view.NewLedgerModel(rt.App),
		exportView:  view.NewExportModel(rt.App, rt.Export),
		syncView:    view.NewSyncModel(rt.Mirror),
		importView:  view.NewImportModel(rt.App, rt.Import),
	}
}

func (m model) Init() tea.Cmd {
	return statusTick()
}

// resize replays the last window size to a freshly built view.
func (m model) resize(v tea.Model) (tea.Model, tea.Cmd) {
	if m.size.Width == 0 {
		return v, nil
	}

	return v.Update(m.size)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg
	case statusTickMsg:
		return m, statusTick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			var next tea.Model

			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewBoard
				next, cmd = m.resize(view.NewBoardModel(m.rt.App))
				m.boardView = next.(view.BoardModel)

				return m, tea.Batch(cmd, m.boardView.Init())
			case "2":
				m.currentView = ViewLedger
				next, cmd = m.resize(view.NewLedgerModel(m.rt.App))
				m.ledgerView = next.(view.LedgerModel)

				return m, tea.Batch(cmd, m.ledgerView.Init())
			case "3":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.rt.App, m.rt.Export)

				return m, m.exportView.Init()
			case "4":
				m.currentView = ViewSync
				m.syncView = view.NewSyncModel(m.rt.Mirror)

				return m, m.syncView.Init()
			case "5":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.rt.App, m.rt.Import)

				return m, m.importView.Init()
			case "s":
				return m, m.flush()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewBoard:
		var newModel tea.Model
		newModel, cmd = m.boardView.Update(msg)
		m.boardView = newModel.(view.BoardModel)
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.ledgerView.Update(msg)
		m.ledgerView = newModel.(view.LedgerModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	case ViewSync:
		var newModel tea.Model
		newModel, cmd = m.syncView.Update(msg)
		m.syncView = newModel.(view.SyncModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) flush() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := m.rt.Saver.Flush(ctx); err != nil {
			slog.Error("failed to save", "error", err)
		}

		return statusTickMsg{}
	}
}

func (m model) statusLine() string {
	st := m.rt.Saver.Status()

	line := st.Message
	if st.Dirty {
		line += " • alterações pendentes"
	}

	return lipgloss.NewStyle().Faint(true).Render(line)
}

func (m model) View() string {
	var body string

	switch m.currentView {
	case ViewMenu:
		body = lipgloss.NewStyle().Padding(2).Render(
			m.appName + "\n\n" +
				"1. Ordens de Serviço\n" +
				"2. Financeiro\n" +
				"3. Exportar Relatório\n" +
				"4. Sincronizar com a Nuvem\n" +
				"5. Importar Extrato\n\n" +
				"s. Salvar agora\n" +
				"q. Sair",
		)
	case ViewBoard:
		body = m.boardView.View()
	case ViewLedger:
		body = m.ledgerView.View()
	case ViewExport:
		body = m.exportView.View()
	case ViewSync:
		body = m.syncView.View()
	case ViewImport:
		body = m.importView.View()
	default:
		body = "Unknown View"
	}

	return body + "\n" + m.statusLine()
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logFile, err := tea.LogToFile("oficina-tui.log", "")
	if err == nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(logFile, nil)))
		defer logFile.Close()
	}

	ctx := context.Background()

	rt, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(rt, cfg), tea.WithAltScreen())

	_, runErr := p.Run()

	closeCtx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout)
	defer cancel()

	if err := rt.Close(closeCtx); err != nil {
		slog.Error("failed to save on exit", "error", err)
	}

	if runErr != nil {
		slog.Error("failed to run TUI", "error", runErr)
		os.Exit(1)
	}
}
