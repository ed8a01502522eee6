// Package schema validates raw untyped payloads against explicit, named
// schemas before they are trusted. Validation is a pure function of its
// input: no I/O, no side effects, and no responsibility for transport
// concerns such as acknowledgment.
package schema

import (
	"fmt"
	"regexp"
	"sort"
)

// FieldError names one offending field and the first constraint it violated.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Kind is the primitive type a field value must carry on the wire.
type Kind int

const (
	String Kind = iota
)

// Field declares the constraints applied to a single payload field.
// Constraints are checked in declaration order and only the first violation
// is reported for the field.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
	NonEmpty bool
	Email    bool
	MaxLen   int
}

// Schema is the declared shape of one payload: the full set of permitted
// fields and their constraints. Any field outside the declared set is
// rejected.
type Schema struct {
	Name   string
	Fields []Field
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks a raw decoded payload against the schema. It returns nil
// when the payload conforms, otherwise one FieldError per offending field.
func (s *Schema) Validate(raw map[string]any) []FieldError {
	var errs []FieldError

	for _, f := range s.Fields {
		value, present := raw[f.Name]
		if !present {
			if !f.Optional {
				errs = append(errs, FieldError{
					Field:   f.Name,
					Message: fmt.Sprintf("%s is required", f.Name),
				})
			}
			continue
		}
		if fieldErr := f.check(value); fieldErr != nil {
			errs = append(errs, *fieldErr)
		}
	}

	// Unknown fields are rejected by name, sorted for stable logs.
	var unknown []string
	for name := range raw {
		if !s.declares(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, FieldError{
			Field:   name,
			Message: fmt.Sprintf("property %s should not exist", name),
		})
	}

	return errs
}

func (s *Schema) declares(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (f *Field) check(value any) *FieldError {
	switch f.Kind {
	case String:
		str, ok := value.(string)
		if !ok {
			return &FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("%s must be a string", f.Name),
			}
		}
		if f.NonEmpty && str == "" {
			return &FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("%s should not be empty", f.Name),
			}
		}
		if f.MaxLen > 0 && len([]rune(str)) > f.MaxLen {
			return &FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("%s must be shorter than or equal to %d characters", f.Name, f.MaxLen),
			}
		}
		if f.Email && !emailPattern.MatchString(str) {
			return &FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("%s must be a valid email", f.Name),
			}
		}
	}
	return nil
}
