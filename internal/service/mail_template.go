package service

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.tmpl
var mailTemplatesFS embed.FS

// TemplateRenderer turns a template name plus variables into a mail
// body. The core never supplies markup itself.
type TemplateRenderer interface {
	Render(name string, vars map[string]interface{}) (string, error)
}

type mailRenderer struct {
	templates *template.Template
}

func NewMailRenderer() (TemplateRenderer, error) {
	templates, err := template.ParseFS(mailTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &mailRenderer{templates: templates}, nil
}

func (r *mailRenderer) Render(name string, vars map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name+".tmpl", vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
