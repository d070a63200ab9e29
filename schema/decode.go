package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// BatchRequest is the payload of a batch prediction.
type BatchRequest struct {
	Patients []PatientRecord `json:"patients"`
}

// DecodePatient parses and validates a single record from a request body.
// Every offending field is reported, not only the first one.
func DecodePatient(data []byte) (PatientRecord, error) {
	if !json.Valid(data) {
		return PatientRecord{}, jsonDecodeError()
	}
	rec, errs := decodeRecord(data, []any{"body"})
	if len(errs) > 0 {
		return PatientRecord{}, &ValidationError{Errors: errs}
	}
	return rec, nil
}

// DecodeBatch parses and validates a {"patients": [...]} body. A single
// invalid record rejects the whole batch.
func DecodeBatch(data []byte) ([]PatientRecord, error) {
	if !json.Valid(data) {
		return nil, jsonDecodeError()
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, &ValidationError{Errors: []FieldError{notDict([]any{"body"})}}
	}

	loc := []any{"body", "patients"}
	raw, ok := obj["patients"]
	if !ok {
		return nil, &ValidationError{Errors: []FieldError{missing(loc)}}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, &ValidationError{Errors: []FieldError{{Loc: loc, Msg: "value is not a valid list", Type: ErrTypeList}}}
	}

	records := make([]PatientRecord, len(items))
	var errs []FieldError
	for i, item := range items {
		rec, fieldErrs := decodeRecord(item, withLoc(loc, i))
		if len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			continue
		}
		records[i] = rec
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return records, nil
}

func decodeRecord(data []byte, loc []any) (PatientRecord, []FieldError) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return PatientRecord{}, []FieldError{notDict(loc)}
	}

	var (
		rec  PatientRecord
		errs []FieldError
	)
	for _, f := range Fields() {
		fieldLoc := withLoc(loc, f.String())
		raw, ok := obj[f.String()]
		if !ok {
			errs = append(errs, missing(fieldLoc))
			continue
		}
		v, fe, ok := parseValue(raw, f.Constraint().Kind, fieldLoc)
		if !ok {
			errs = append(errs, fe)
			continue
		}
		if fe, ok := checkBounds(f, v, fieldLoc); !ok {
			errs = append(errs, fe)
			continue
		}
		rec.set(f, v)
	}
	return rec, errs
}

func parseValue(raw json.RawMessage, kind Kind, loc []any) (float64, FieldError, bool) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return 0, FieldError{Loc: loc, Msg: "none is not an allowed value", Type: ErrTypeNone}, false
	}

	typeErr := FieldError{Loc: loc, Msg: "value is not a valid integer", Type: ErrTypeInteger}
	if kind == KindFloat {
		typeErr = FieldError{Loc: loc, Msg: "value is not a valid float", Type: ErrTypeFloat}
	}

	// strings, booleans, arrays and objects all start with a non-numeric byte
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, typeErr, false
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, typeErr, false
	}
	if kind == KindInt && (v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32) {
		return 0, typeErr, false
	}
	return v, FieldError{}, true
}

func checkBounds(f Field, v float64, loc []any) (FieldError, bool) {
	c := f.Constraint()
	if c.HasMin && v < c.Min {
		return FieldError{
			Loc:  loc,
			Msg:  "ensure this value is greater than or equal to " + formatLimit(c.Min),
			Type: ErrTypeNotGE,
			Ctx:  map[string]any{"limit_value": c.Min},
		}, false
	}
	if c.HasMax && v > c.Max {
		return FieldError{
			Loc:  loc,
			Msg:  "ensure this value is less than or equal to " + formatLimit(c.Max),
			Type: ErrTypeNotLE,
			Ctx:  map[string]any{"limit_value": c.Max},
		}, false
	}
	return FieldError{}, true
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func notDict(loc []any) FieldError {
	return FieldError{Loc: loc, Msg: "value is not a valid dict", Type: ErrTypeDict}
}

func jsonDecodeError() *ValidationError {
	return &ValidationError{Errors: []FieldError{{
		Loc:  []any{"body"},
		Msg:  "JSON decode error",
		Type: ErrTypeJSONDecode,
	}}}
}
