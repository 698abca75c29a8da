package extract

import (
	"errors"
	"fmt"
)

// Common extraction errors
var (
	// ErrInvalidPDF is returned when the data is not a readable PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted document")

	// ErrFileTooLarge is returned when the file exceeds MaxFileSizeBytes.
	ErrFileTooLarge = errors.New("document size exceeds the maximum limit (20MB)")

	// ErrEmptyDocument is returned when the document has no text layer,
	// typically a scanned receipt that needs OCR instead.
	ErrEmptyDocument = errors.New("document contains no readable text")
)

// ExtractError wraps errors with the operation that failed.
type ExtractError struct {
	Op      string
	Err     error
	Details string
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extract: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extract: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// WrapExtractError wraps err as an ExtractError unless it already is one.
func WrapExtractError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return err
	}
	return &ExtractError{Op: op, Err: err, Details: details}
}
