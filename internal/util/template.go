package util

import (
	"bytes"
	"strings"
	"text/template"
)

// RenderTemplate renders a prompt template with Go's text/template package.
// It lives in internal to avoid committing to public API stability
// prematurely; the planner and critic build their prompts through it.
func RenderTemplate(text string, data any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"join":  strings.Join,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
