package search

import (
	"errors"
	"fmt"
)

// ComputationError reports a defect hit while scoring a document, such as an
// out-of-range index inside a matcher. It aborts the whole search.
type ComputationError struct {
	DocumentID string
	Keyword    string
	Cause      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed for document %s keyword %q: %v", e.DocumentID, e.Keyword, e.Cause)
}

func (e *ComputationError) Unwrap() error {
	return e.Cause
}

// IsComputationError reports whether err is or wraps a *ComputationError.
func IsComputationError(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}

func recovered(docID, keyword string, v any) *ComputationError {
	cause, ok := v.(error)
	if !ok {
		cause = fmt.Errorf("%v", v)
	}
	return &ComputationError{DocumentID: docID, Keyword: keyword, Cause: cause}
}
