package render

import (
	"embed"
	"html/template"
)

//go:embed templates/*
var templateFS embed.FS

// newTemplates parses the embedded artifact and index templates.
func newTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

var templates = newTemplates()
