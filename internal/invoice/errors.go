package invoice

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common invoice lifecycle errors
var (
	// ErrNotFound is returned when no invoice matches the requested id or number.
	ErrNotFound = errors.New("invoice not found")

	// ErrInvalidState is returned when mutating or deleting an invoice in a final state.
	ErrInvalidState = errors.New("invoice is in a final state")

	// ErrInvalidTransition is returned when the status machine rejects a status change.
	ErrInvalidTransition = errors.New("invoice status transition not allowed")

	// ErrDuplicateNumber is returned when an invoice number is already taken.
	ErrDuplicateNumber = errors.New("invoice number already exists")

	// ErrValidation is returned when required invoice fields are missing or malformed.
	ErrValidation = errors.New("invoice validation failed")
)

// Error wraps lifecycle errors with the operation and the invoice involved.
type Error struct {
	// Op is the operation that failed (e.g., "Update", "UpdateStatus").
	Op string

	// ID is the invoice id, when known.
	ID string

	// Number is the invoice number, when known.
	Number string

	// From and To describe an attempted status transition.
	From Status
	To   Status

	// Details provides additional context about the failure.
	Details string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("invoice: ")
	b.WriteString(e.Op)
	b.WriteString(" failed")
	if e.ID != "" {
		fmt.Fprintf(&b, " (id: %s)", e.ID)
	}
	if e.Number != "" {
		fmt.Fprintf(&b, " (number: %s)", e.Number)
	}
	if e.From != "" || e.To != "" {
		fmt.Fprintf(&b, " (%s -> %s)", e.From, e.To)
	}
	if e.Details != "" {
		b.WriteString(": ")
		b.WriteString(e.Details)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// ValidationError collects per-field validation failures.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records a failure for field, keeping the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func notFound(op, id, number string) error {
	return &Error{Op: op, ID: id, Number: number, Err: ErrNotFound}
}

func invalidState(op string, inv *Invoice) error {
	return &Error{
		Op:      op,
		ID:      inv.ID,
		Number:  inv.InvoiceNumber,
		Details: fmt.Sprintf("invoice is %s", inv.Status),
		Err:     ErrInvalidState,
	}
}

// wrap attaches op context unless err already carries it.
func wrap(op string, err error, id string) error {
	if err == nil {
		return nil
	}
	var ie *Error
	if errors.As(err, &ie) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &Error{Op: op, ID: id, Err: err}
}
