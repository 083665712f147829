// Package web holds the cleaner console templates.
package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/yeremiapane/cleanmate-app/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"vnd": utils.FormatCurrencyVND,
	"datetime": func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// Templates parses every console page. Page templates are addressed by
// file name, e.g. "login.html".
func Templates() (*template.Template, error) {
	return template.New("console").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}
