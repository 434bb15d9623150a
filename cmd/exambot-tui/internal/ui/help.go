package ui

import (
	"github.com/rivo/tview"
)

// createHelpPanel creates the help panel.
func (a *App) createHelpPanel() {
	a.helpView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.helpView.SetBorder(true).SetTitle(" Help ")

	helpText := `[yellow::b]ExamBot Admin - Terminal Console[white]

Edit the six advertisement placements shown on the ExamBot home page.

[yellow::b]GLOBAL KEYS[white]
[cyan]F1[white]           Help           - Toggle this screen
[cyan]Escape[white]       Back           - Leave the help screen
[cyan]Ctrl+Q[white]       Quit           - Exit the application

[yellow::b]LOGIN[white]
[cyan]Tab[white]          Move between username, password and the Login button
[cyan]Enter[white]        Activate the focused button

[yellow::b]EDITOR[white]
Each placement has an image URL and a link URL. Edits stay local until saved.
A placement without an image URL is not shown on the home page.
[cyan]Ctrl+S[white]       Save           - Send all six placements
[cyan]Ctrl+R[white]       Reload         - Discard edits and fetch from the backend
[cyan]Tab[white]          Next field

Placements: Left Ad 1, Left Ad 2, Right Ad 1, Right Ad 2,
Mobile Top Ad, Mobile Bottom Ad.

[yellow::b]ENVIRONMENT VARIABLES[white]
[cyan]BACKEND_URL[white]              Backend origin (default: http://localhost:8001)
[cyan]BACKEND_TIMEOUT[white]          Request timeout (default: 2m)
[cyan]EXAMBOT_ADMIN_USER[white]       Prefilled username
[cyan]EXAMBOT_TOAST_DURATION[white]   How long messages stay visible (default: 4s)
[cyan]EXAMBOT_TUI_LOG[white]          Write logs to this file

[dim]Press Esc to return[white]
`

	a.helpView.SetText(helpText)
}
