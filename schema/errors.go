package schema

import (
	"fmt"
	"strings"
)

// Error types reported in FieldError.Type.
const (
	ErrTypeMissing    = "value_error.missing"
	ErrTypeJSONDecode = "value_error.jsondecode"
	ErrTypeNotGE      = "value_error.number.not_ge"
	ErrTypeNotLE      = "value_error.number.not_le"
	ErrTypeInteger    = "type_error.integer"
	ErrTypeFloat      = "type_error.float"
	ErrTypeNone       = "type_error.none.not_allowed"
	ErrTypeDict       = "type_error.dict"
	ErrTypeList       = "type_error.list"
)

// FieldError describes one rejected value. Loc is the path to the value,
// starting with "body" for request payloads.
type FieldError struct {
	Loc  []any          `json:"loc"`
	Msg  string         `json:"msg"`
	Type string         `json:"type"`
	Ctx  map[string]any `json:"ctx,omitempty"`
}

func (e FieldError) path() string {
	parts := make([]string, len(e.Loc))
	for i, l := range e.Loc {
		parts[i] = fmt.Sprint(l)
	}
	return strings.Join(parts, ".")
}

// ValidationError is returned when a submitted record does not satisfy the
// schema. It is always attributable to the client.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	first := e.Errors[0]
	msg := fmt.Sprintf("%s: %s", first.path(), first.Msg)
	if n := len(e.Errors) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

func missing(loc []any) FieldError {
	return FieldError{Loc: loc, Msg: "field required", Type: ErrTypeMissing}
}

func withLoc(loc []any, elems ...any) []any {
	out := make([]any, 0, len(loc)+len(elems))
	out = append(out, loc...)
	return append(out, elems...)
}
