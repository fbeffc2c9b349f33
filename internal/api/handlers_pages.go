package api

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// renderComponent executes a registered component into HTML.
func (s *Server) renderComponent(r *http.Request, name string) (template.HTML, bool, error) {
	c, ok := s.components.Lookup(name)
	if !ok {
		return "", false, nil
	}

	var data any
	if c.Load != nil {
		var err error
		if data, err = c.Load(r.Context(), r); err != nil {
			return "", true, err
		}
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, c.Template, data); err != nil {
		return "", true, err
	}
	return template.HTML(buf.String()), true, nil
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	html, ok, err := s.renderComponent(r, name)
	if !ok {
		writeError(w, http.StatusNotFound, "component not found: "+name)
		return
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// handleIndex renders the shell with ?component= (or the home component)
// mounted in the main area.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	active := r.URL.Query().Get("component")
	if active == "" {
		active = DefaultComponent
	}

	data := ShellData{Active: active}
	for _, c := range s.components.All() {
		data.Components = append(data.Components, MenuItem{Name: c.Name, Title: c.Title, Active: c.Name == active})
		if c.Name == active {
			data.Title = c.Title
		}
	}

	status := http.StatusOK
	html, ok, err := s.renderComponent(r, active)
	switch {
	case !ok:
		status = http.StatusNotFound
		data.NotFound = "component not found: " + active
	case err != nil:
		s.logger.Error("render component", "component", active, "error", err)
		http.Error(w, "failed to render "+active, http.StatusInternalServerError)
		return
	default:
		data.Content = html
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.Error("template error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
