package planner

import (
	"strings"

	"github.com/ternarybob/serendib/internal/services/validation"
)

// ContactForm holds the traveller's contact details entered in the submission dialog
type ContactForm struct {
	Name  string `json:"name" validate:"min=2"`
	Email string `json:"email" validate:"email"`
	Phone string `json:"phone" validate:"min=10"`
	Notes string `json:"notes,omitempty"`
}

// Normalized trims surrounding whitespace from every field
func (f ContactForm) Normalized() ContactForm {
	return ContactForm{
		Name:  strings.TrimSpace(f.Name),
		Email: strings.TrimSpace(f.Email),
		Phone: strings.TrimSpace(f.Phone),
		Notes: strings.TrimSpace(f.Notes),
	}
}

// IsZero reports whether every field is blank
func (f ContactForm) IsZero() bool {
	return f == ContactForm{}
}

// NewFormValidator returns a validation service with the dialog's field messages
func NewFormValidator() *validation.Service {
	v := validation.NewService()
	v.SetMessage("name", "min", "Name must be at least 2 characters")
	v.SetMessage("email", "email", "Please enter a valid email address")
	v.SetMessage("phone", "min", "Phone number must be at least 10 characters")
	return v
}

// ValidateContact checks the form and returns per-field messages, or nil when valid.
// Each field is checked independently so every problem is reported at once.
func ValidateContact(v *validation.Service, form ContactForm) validation.FieldErrors {
	return v.Struct(form.Normalized())
}
