package report

import (
	"errors"
	"fmt"
)

var (
	// ErrReporting is matched by every rendering or output failure.
	ErrReporting = errors.New("report export failed")

	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Error wraps a rendering or sink failure with the export operation and format.
type Error struct {
	Op     string
	Format Format
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("report: %s (%s): %v", e.Op, e.Format, e.Err)
	}
	return fmt.Sprintf("report: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrReporting as well as the wrapped cause.
func (e *Error) Is(target error) bool {
	return target == ErrReporting || errors.Is(e.Err, target)
}
