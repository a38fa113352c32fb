// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package forms declares HTML forms as field descriptors and binds,
// validates and renders them.
package forms

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FieldKind is the HTML control a field renders as.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindSubmit FieldKind = "submit"
)

// Validator checks a single field. Returning an error marks the field invalid
// and the error text is shown to the user.
type Validator interface {
	Validate(form *Form, field *Field) error
}

// Field is one declared input of a form.
type Field struct {
	Name       string
	Label      string
	Kind       FieldKind
	Validators []Validator

	Data   string
	Errors []string
}

// Text declares a text input.
func Text(name, label string, validators ...Validator) *Field {
	return &Field{Name: name, Label: label, Kind: KindText, Validators: validators}
}

// Submit declares a submit control.
func Submit(name, label string) *Field {
	return &Field{Name: name, Label: label, Kind: KindSubmit}
}

// Required reports whether the field carries a DataRequired validator.
func (f *Field) Required() bool {
	for _, v := range f.Validators {
		if _, ok := v.(dataRequired); ok {
			return true
		}
	}
	return false
}

// IsSubmit reports whether the field is a submit control.
func (f *Field) IsSubmit() bool {
	return f.Kind == KindSubmit
}

// Form is an ordered set of fields.
type Form struct {
	Action string
	Fields []*Field
}

// New builds a form from fields. Field names must be unique.
func New(fields ...*Field) *Form {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			panic(fmt.Sprintf("forms: duplicate field %q", f.Name))
		}
		seen[f.Name] = struct{}{}
	}
	return &Form{Fields: fields}
}

// Field returns the named field or nil.
func (f *Form) Field(name string) *Field {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld
		}
	}
	return nil
}

// Names returns the field names in declaration order.
func (f *Form) Names() []string {
	names := make([]string, len(f.Fields))
	for i, fld := range f.Fields {
		names[i] = fld.Name
	}
	return names
}

// Bind copies submitted values into the form. Text values are trimmed and
// NFC-normalized; submit controls always hold their label.
func (f *Form) Bind(values url.Values) {
	for _, fld := range f.Fields {
		switch fld.Kind {
		case KindSubmit:
			fld.Data = fld.Label
		default:
			fld.Data = norm.NFC.String(strings.TrimSpace(values.Get(fld.Name)))
		}
		fld.Errors = nil
	}
}

// Validate runs every validator and records the failures on the fields.
func (f *Form) Validate() bool {
	ok := true
	for _, fld := range f.Fields {
		fld.Errors = nil
		for _, v := range fld.Validators {
			if err := v.Validate(f, fld); err != nil {
				fld.Errors = append(fld.Errors, err.Error())
				ok = false
				var stop StopValidation
				if errors.As(err, &stop) {
					break
				}
			}
		}
	}
	return ok
}

// Errors returns the recorded errors keyed by field name.
func (f *Form) Errors() map[string][]string {
	out := make(map[string][]string)
	for _, fld := range f.Fields {
		if len(fld.Errors) > 0 {
			out[fld.Name] = append([]string(nil), fld.Errors...)
		}
	}
	return out
}

// ValidateOnSubmit binds and validates the request when it is a POST.
// checkToken verifies the submitted CSRF token; its error is returned
// unchanged so callers can tell a forged submission from bad input.
func (f *Form) ValidateOnSubmit(r *http.Request, checkToken func(token string) error) (bool, error) {
	if r.Method != http.MethodPost {
		return false, nil
	}
	if err := r.ParseForm(); err != nil {
		return false, fmt.Errorf("forms: parse request: %w", err)
	}
	f.Bind(r.PostForm)
	if checkToken != nil {
		if err := checkToken(r.PostForm.Get(CSRFFieldName)); err != nil {
			return false, err
		}
	}
	return f.Validate(), nil
}
