// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package forms

import "strings"

// StopValidation halts the validator chain of a field.
type StopValidation struct {
	Message string
}

func (e StopValidation) Error() string { return e.Message }

type dataRequired struct {
	message string
}

// DataRequired fails when the field holds no data after trimming.
// An empty message selects the default text.
func DataRequired(message string) Validator {
	if message == "" {
		message = "This field is required."
	}
	return dataRequired{message: message}
}

func (v dataRequired) Validate(_ *Form, field *Field) error {
	if strings.TrimSpace(field.Data) == "" {
		return StopValidation{Message: v.message}
	}
	return nil
}
