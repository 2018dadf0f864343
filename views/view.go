package views

import (
	"net/http"

	"github.com/a-h/templ"
)

//go:generate templ generate

func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// Page carries what every page needs regardless of content.
type Page struct {
	Title    string
	BasePath string
}

// URL prefixes an absolute application path with the deployment base path.
func (p Page) URL(path string) string {
	return p.BasePath + path
}

func (p Page) titled(title string) Page {
	p.Title = title
	return p
}
