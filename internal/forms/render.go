// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package forms

import (
	"html/template"
	"io"
	"strings"

	"github.com/ManuGH/greeter/internal/csrf"
)

// CSRFFieldName is the hidden input carrying the signed CSRF token.
const CSRFFieldName = csrf.FieldName

var formTemplate = template.Must(template.New("form").Parse(`<form method="POST"{{with .Form.Action}} action="{{.}}"{{end}}>
<input type="hidden" name="` + CSRFFieldName + `" value="{{.CSRFToken}}">
{{range .Form.Fields}}{{if .IsSubmit}}<input type="submit" id="{{.Name}}" name="{{.Name}}" value="{{.Label}}">
{{else}}<div class="form-group{{if .Errors}} has-error{{end}}">
<label for="{{.Name}}">{{.Label}}</label>
<input type="text" id="{{.Name}}" name="{{.Name}}" value="{{.Data}}"{{if .Required}} required{{end}}>
{{range .Errors}}<span class="help-block">{{.}}</span>
{{end}}</div>
{{end}}{{end}}</form>
`))

// Render writes the form as HTML. All field data is escaped.
func (f *Form) Render(w io.Writer, csrfToken string) error {
	return formTemplate.Execute(w, struct {
		Form      *Form
		CSRFToken string
	}{Form: f, CSRFToken: csrfToken})
}

// HTML renders the form into a template.HTML value for embedding in pages.
func (f *Form) HTML(csrfToken string) (template.HTML, error) {
	var b strings.Builder
	if err := f.Render(&b, csrfToken); err != nil {
		return "", err
	}
	// #nosec G203 -- produced by html/template, every value is escaped
	return template.HTML(b.String()), nil
}
