// Package ui provides the terminal user interface for the ExamBot admin console.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/iconidentify/exambot/cmd/exambot-tui/internal/config"
	appconfig "github.com/iconidentify/exambot/internal/config"
	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/notify"
	"github.com/iconidentify/exambot/internal/repository"
	"github.com/iconidentify/exambot/internal/service"
	"github.com/iconidentify/exambot/pkg/backend"
)

// Panel represents a UI panel type.
type Panel int

const (
	PanelLogin Panel = iota
	PanelEditor
	PanelHelp
)

// App is the main TUI application.
type App struct {
	app    *tview.Application
	pages  *tview.Pages
	cfg    *config.Config
	admin  *service.AdminPage
	ctx    context.Context
	cancel context.CancelFunc

	currentPanel Panel
	returnPanel  Panel

	// UI components
	mainFlex   *tview.Flex
	header     *tview.TextView
	footer     *tview.TextView
	statusBar  *tview.TextView
	loginForm  *tview.Form
	editorForm *tview.Form
	helpView   *tview.TextView

	toastMu    sync.Mutex
	toastTimer *time.Timer
}

// NewApp creates a new TUI application.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	client := backend.NewClient(appconfig.BackendConfig{
		URL:     cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
	})
	a.admin = service.NewAdminPage(service.Deps{
		Backend:  client,
		Sessions: repository.NewInMemorySessionRepository(),
		Logger:   logger,
	}, notify.Func(a.showToast))

	a.setupUI()
	return a, nil
}

// setupUI initializes all UI components.
func (a *App) setupUI() {
	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.header.SetBackgroundColor(tcell.ColorDarkBlue)

	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true)
	a.statusBar.SetBackgroundColor(tcell.ColorBlack)

	a.createLoginPanel()
	a.createEditorPanel()
	a.createHelpPanel()

	a.pages.AddPage("login", a.loginForm, true, true)
	a.pages.AddPage("editor", a.editorForm, true, false)
	a.pages.AddPage("help", a.helpView, true, false)

	a.mainFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 3, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false).
		AddItem(a.footer, 1, 0, false)

	a.app.SetInputCapture(a.handleGlobalKeys)
	a.app.SetRoot(a.mainFlex, true)

	a.switchPanel(PanelLogin)
}

// handleGlobalKeys handles global keyboard shortcuts. Plain runes are left
// to the input fields.
func (a *App) handleGlobalKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyF1:
		if a.currentPanel == PanelHelp {
			a.switchPanel(a.returnPanel)
		} else {
			a.switchPanel(PanelHelp)
		}
		return nil
	case tcell.KeyEscape:
		if a.currentPanel == PanelHelp {
			a.switchPanel(a.returnPanel)
			return nil
		}
	case tcell.KeyCtrlS:
		if a.currentPanel == PanelEditor {
			go a.save()
			return nil
		}
	case tcell.KeyCtrlR:
		if a.currentPanel == PanelEditor {
			go a.reload()
			return nil
		}
	case tcell.KeyCtrlQ:
		a.Stop()
		return nil
	}
	return event
}

// switchPanel switches to the specified panel.
func (a *App) switchPanel(panel Panel) {
	if panel == PanelHelp && a.currentPanel != PanelHelp {
		a.returnPanel = a.currentPanel
	}
	a.currentPanel = panel

	switch panel {
	case PanelLogin:
		a.pages.SwitchToPage("login")
		a.app.SetFocus(a.loginForm)
		a.footer.SetText("[yellow]Enter[white]:Submit [yellow]Tab[white]:Next field [yellow]F1[white]:Help [yellow]Ctrl+Q[white]:Quit")
	case PanelEditor:
		a.pages.SwitchToPage("editor")
		a.app.SetFocus(a.editorForm)
		a.footer.SetText("[yellow]Ctrl+S[white]:Save [yellow]Ctrl+R[white]:Reload [yellow]Tab[white]:Next field [yellow]F1[white]:Help [yellow]Ctrl+Q[white]:Quit")
	case PanelHelp:
		a.pages.SwitchToPage("help")
		a.footer.SetText("[yellow]Esc[white]:Back [yellow]Ctrl+Q[white]:Quit")
	}

	a.updateHeader()
}

// updateHeader updates the header with current panel name.
func (a *App) updateHeader() {
	var panelName string
	switch a.currentPanel {
	case PanelLogin:
		panelName = "Admin Login"
	case PanelEditor:
		panelName = "Admin Dashboard"
	case PanelHelp:
		panelName = "Help"
	}

	user := "[red]not logged in"
	if s := a.admin.Session(); s != nil {
		user = "[green]" + tview.Escape(s.Username)
	}

	a.header.SetText(fmt.Sprintf("\n[white::b]ExamBot Admin[white] - [yellow]%s[white] | Backend: [green]%s[white] | %s",
		panelName, tview.Escape(a.cfg.BackendURL), user))
}

// showToast renders a notification in the status bar and clears it after
// the configured duration. Safe to call from any goroutine.
func (a *App) showToast(n domain.Notification) {
	a.app.QueueUpdateDraw(func() {
		a.statusBar.SetText(" " + toastText(n))
	})

	a.toastMu.Lock()
	defer a.toastMu.Unlock()
	if a.toastTimer != nil {
		a.toastTimer.Stop()
	}
	a.toastTimer = time.AfterFunc(a.cfg.ToastDuration, func() {
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetText("")
		})
	})
}

// setStatus shows a transient progress message.
func (a *App) setStatus(msg string) {
	a.app.QueueUpdateDraw(func() {
		a.statusBar.SetText(" [yellow]" + tview.Escape(msg))
	})
}

func toastText(n domain.Notification) string {
	color := "white"
	switch n.Level {
	case domain.NoticeSuccess:
		color = "green"
	case domain.NoticeError:
		color = "red"
	case domain.NoticeInfo:
		color = "blue"
	}
	return fmt.Sprintf("[%s]%s", color, tview.Escape(n.Message))
}

// Run starts the TUI application.
func (a *App) Run() error {
	return a.app.Run()
}

// Stop stops the TUI application.
func (a *App) Stop() {
	a.cancel()
	a.toastMu.Lock()
	if a.toastTimer != nil {
		a.toastTimer.Stop()
	}
	a.toastMu.Unlock()
	a.app.Stop()
}
