package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("product already exists")
	ErrInvalidPayload   = errors.New("invalid payload")
)

// ValidationError lists required fields that were blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %q not found", e.ID)
}

// TransportError wraps a failed call to the product backend. StatusCode is
// zero when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets callers test a 401 with errors.Is(err, ErrUnauthorized).
func (e *TransportError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// RequireFields returns a ValidationError naming every blank field, or nil.
// fields alternates name, value.
func RequireFields(fields ...string) error {
	var missing []string
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			missing = append(missing, fields[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing}
}

// Validate checks the fields a product needs before it is sent to the
// backend: the id addresses the record, the rest are mandatory on the form.
func Validate(p Product) error {
	return RequireFields("id", p.ID, "name", p.Name, "category", p.Category, "supplier", p.Supplier)
}
