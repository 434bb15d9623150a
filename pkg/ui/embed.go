// Package ui provides the embedded HTML templates for the exambot server.
//
// Every page is rendered inside the shared layout, which shows the toast
// stack and an optional auto-refresh used while a generation is running.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/iconidentify/exambot/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Render.
const (
	PageHome       = "home"
	PageAdminLogin = "admin_login"
	PageAdmin      = "admin"
)

var pageNames = []string{PageHome, PageAdminLogin, PageAdmin}

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"slotLabel": func(key domain.SlotKey) string { return key.Label() },
	"preview":   PreviewURL,
	"toastClass": func(level domain.NoticeLevel) string {
		return "toast toast-" + string(level)
	},
}

// PreviewURL marks an inline image data URL as safe for an img src.
// Anything that is not a data:image/ URL is replaced with an empty URL.
func PreviewURL(dataURL string) template.URL {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return ""
	}
	return template.URL(dataURL)
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout together with each page.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(Funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes the named page with data.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
