package api

import (
	"embed"
	"encoding/json"
	"html/template"
	"math"
)

//go:embed templates/*
var templateFS embed.FS

// newTemplates parses the shell and component templates.
func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return template.JS(b), nil
		},
		"round": func(f float64) float64 {
			return math.Round(f)
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
