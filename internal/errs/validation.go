package errs

import "strings"

// FieldError describes a single violated input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validation aggregates every violated field of a request, not just the first.
// It unwraps to ErrInvalid so callers can route on the taxonomy without
// inspecting fields.
type Validation struct {
	Fields []FieldError
}

func (v *Validation) Error() string {
	if len(v.Fields) == 0 {
		return ErrInvalid.Error()
	}
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

func (v *Validation) Unwrap() error { return ErrInvalid }

// Add records a violation and returns v for chaining.
func (v *Validation) Add(field, message string) *Validation {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
	return v
}

// AddPrefixed records violations from another Validation under a field prefix,
// e.g. nested customer fields become "customer.name".
func (v *Validation) AddPrefixed(prefix string, other *Validation) *Validation {
	for _, f := range other.Fields {
		field := f.Field
		if field == "" {
			field = prefix
		} else {
			field = prefix + "." + field
		}
		v.Fields = append(v.Fields, FieldError{Field: field, Message: f.Message})
	}
	return v
}

// Err returns v as an error, or nil when nothing was recorded.
func (v *Validation) Err() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) *Validation {
	return (&Validation{}).Add(field, message)
}
