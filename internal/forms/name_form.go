// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package forms

// NewNameForm declares the "what is your name?" form: one required text
// field and a submit button.
func NewNameForm() *Form {
	return New(
		Text("name", "What is your name?", DataRequired("")),
		Submit("submit", "Submit"),
	)
}
