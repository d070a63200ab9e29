package ml

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelUnavailable is returned by a Predictor that was never loaded.
var ErrModelUnavailable = errors.New("model not loaded")

// DriftError reports a mismatch between the loaded artifacts and the patient
// schema. It points at a deployment problem, never at the client request.
type DriftError struct {
	Missing   []string
	Unknown   []string
	Duplicate []string
	Reason    string
}

func (e *DriftError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing features "+strings.Join(e.Missing, ","))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown features "+strings.Join(e.Unknown, ","))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, "duplicate features "+strings.Join(e.Duplicate, ","))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return fmt.Sprintf("artifact/schema drift: %s", strings.Join(parts, "; "))
}

func widthDrift(what string, got, want int) *DriftError {
	return &DriftError{Reason: fmt.Sprintf("%s expects %d features, feature list has %d", what, got, want)}
}
