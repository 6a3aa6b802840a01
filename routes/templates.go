package routes

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/promptform/promptform/httpx"
)

//go:embed templates
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

func renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.ExecuteTemplate(w, name, data)
	if err != nil {
		httpx.LogInternalError(w, "render."+name, err)
	}
}

// flash carries a one-shot status message from a redirect into a page.
type flash struct {
	Error   string
	Success string
}

func readFlash(r *http.Request) flash {
	q := r.URL.Query()
	return flash{
		Error:   q.Get("error"),
		Success: q.Get("flash"),
	}
}
