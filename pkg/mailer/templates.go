package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	TemplateVerifyEmail   = "verify_email"
	TemplateResetPassword = "reset_password"
)

// Renderer turns a named template into the plain text and HTML bodies of a
// message. Both variants have the sprig functions available.
type Renderer struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

func NewRenderer() (*Renderer, error) {
	text, err := texttemplate.New("text").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	html, err := htmltemplate.New("html").Funcs(sprig.FuncMap()).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	return &Renderer{text: text, html: html}, nil
}

func (r *Renderer) Render(name string, data interface{}) (string, string, error) {
	var text, html bytes.Buffer
	if err := r.text.ExecuteTemplate(&text, name+".txt.tmpl", data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	if err := r.html.ExecuteTemplate(&html, name+".html.tmpl", data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	return text.String(), html.String(), nil
}
