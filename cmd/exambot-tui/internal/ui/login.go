package ui

import (
	"github.com/rivo/tview"
)

const (
	labelUsername  = "Username"
	labelPassword  = "Password"
	labelLogin     = "Login"
	labelLoggingIn = "Logging in..."
)

// createLoginPanel creates the login form.
func (a *App) createLoginPanel() {
	a.loginForm = tview.NewForm().
		AddInputField(labelUsername, a.cfg.Username, 40, nil, nil).
		AddPasswordField(labelPassword, "", 40, '*', nil).
		AddButton(labelLogin, func() { go a.login() })
	a.loginForm.SetBorder(true).SetTitle(" Admin Login ")
}

// login submits the form. Runs off the UI goroutine.
func (a *App) login() {
	var username, password string
	done := make(chan struct{})
	a.app.QueueUpdateDraw(func() {
		username = a.loginForm.GetFormItemByLabel(labelUsername).(*tview.InputField).GetText()
		password = a.loginForm.GetFormItemByLabel(labelPassword).(*tview.InputField).GetText()
		a.loginForm.GetButton(0).SetLabel(labelLoggingIn)
		close(done)
	})
	<-done

	ok := a.admin.Login(a.ctx, username, password)

	a.app.QueueUpdateDraw(func() {
		a.loginForm.GetButton(0).SetLabel(labelLogin)
		a.loginForm.GetFormItemByLabel(labelPassword).(*tview.InputField).SetText("")
		if ok {
			a.populateEditor()
			a.switchPanel(PanelEditor)
		}
	})
}

// logout ends the session and returns to the login form.
func (a *App) logout() {
	a.admin.Logout(a.ctx)
	a.app.QueueUpdateDraw(func() {
		a.switchPanel(PanelLogin)
	})
}
