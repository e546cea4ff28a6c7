package engine

import (
	"errors"
	"fmt"
	"strings"
)

// RunError represents an error detected while running a validation on a
// model.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	ValidationID string
	ModelID      string

	// Keys lists the offending result keys (for reserved-key errors).
	Keys []string
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeReservedKey indicates a validation returned a key the engine
	// owns (validation_id, model_id or runtime_secs).
	ErrCodeReservedKey RunErrorCode = "RESERVED_KEY"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	msg := fmt.Sprintf("%s: %s (validation=%s, model=%s)", e.Code, e.Message, e.ValidationID, e.ModelID)
	if len(e.Keys) > 0 {
		msg += " keys=[" + strings.Join(e.Keys, ", ") + "]"
	}
	return msg
}

// IsReservedKeyError returns true if the error is a reserved-key collision.
// Uses errors.As to handle wrapped errors.
func IsReservedKeyError(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeReservedKey
	}
	return false
}

func newReservedKeyError(validationID, modelID string, keys []string) *RunError {
	return &RunError{
		Code: ErrCodeReservedKey,
		Message: fmt.Sprintf("validation %s on model %s returned results containing a privileged key name",
			validationID, modelID),
		ValidationID: validationID,
		ModelID:      modelID,
		Keys:         keys,
	}
}
