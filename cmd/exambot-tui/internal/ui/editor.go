package ui

import (
	"github.com/rivo/tview"

	"github.com/iconidentify/exambot/internal/domain"
)

const (
	labelSave   = "Save All Changes"
	labelSaving = "Saving..."
)

// fieldLabel is the form label of one slot field.
func fieldLabel(key domain.SlotKey, field domain.AdField) string {
	switch field {
	case domain.FieldImageURL:
		return key.Label() + " - Image URL"
	case domain.FieldLinkURL:
		return key.Label() + " - Link URL"
	}
	return key.Label()
}

// createEditorPanel creates the six-slot editor form. Every keystroke is
// merged into the local slots; nothing is sent until Save.
func (a *App) createEditorPanel() {
	a.editorForm = tview.NewForm()
	a.editorForm.SetBorder(true).SetTitle(" Manage your advertisement blocks ")

	for _, key := range domain.SlotKeys {
		for _, field := range []domain.AdField{domain.FieldImageURL, domain.FieldLinkURL} {
			key, field := key, field
			a.editorForm.AddInputField(fieldLabel(key, field), "", 60, nil, func(text string) {
				a.admin.UpdateField(key, field, text)
			})
		}
	}

	a.editorForm.
		AddButton(labelSave, func() { go a.save() }).
		AddButton("Reload", func() { go a.reload() }).
		AddButton("Logout", func() { go a.logout() })
}

// populateEditor copies the current slots into the form. Must run on the
// UI goroutine.
func (a *App) populateEditor() {
	ads := a.admin.Ads()
	for _, key := range domain.SlotKeys {
		slot := ads.Slot(key)
		a.setField(fieldLabel(key, domain.FieldImageURL), slot.ImageURL)
		a.setField(fieldLabel(key, domain.FieldLinkURL), slot.LinkURL)
	}
}

func (a *App) setField(label, value string) {
	if input, ok := a.editorForm.GetFormItemByLabel(label).(*tview.InputField); ok {
		input.SetText(value)
	}
}

// save sends the full slot set. Runs off the UI goroutine.
func (a *App) save() {
	a.app.QueueUpdateDraw(func() {
		a.editorForm.GetButton(0).SetLabel(labelSaving)
	})

	a.admin.SaveAll(a.ctx)

	a.app.QueueUpdateDraw(func() {
		a.editorForm.GetButton(0).SetLabel(labelSave)
	})
}

// reload replaces local edits with the backend's slots.
func (a *App) reload() {
	a.setStatus("Loading ads...")
	if a.admin.FetchAds(a.ctx) {
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetText("")
			a.populateEditor()
		})
	}
}
