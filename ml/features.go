package ml

import (
	"heartapi/schema"
)

// FeatureOrder maps the artifact feature list onto schema fields. It is
// immutable once built.
type FeatureOrder struct {
	names  []string
	fields []schema.Field
}

// NewFeatureOrder binds names to schema fields. The list must name every
// schema field exactly once.
func NewFeatureOrder(names []string) (FeatureOrder, error) {
	drift := &DriftError{}
	seen := make(map[schema.Field]bool, len(names))
	fields := make([]schema.Field, 0, len(names))

	for _, name := range names {
		f, ok := schema.FieldByName(name)
		if !ok {
			drift.Unknown = append(drift.Unknown, name)
			continue
		}
		if seen[f] {
			drift.Duplicate = append(drift.Duplicate, name)
			continue
		}
		seen[f] = true
		fields = append(fields, f)
	}
	for _, f := range schema.Fields() {
		if !seen[f] {
			drift.Missing = append(drift.Missing, f.String())
		}
	}

	if len(drift.Missing) > 0 || len(drift.Unknown) > 0 || len(drift.Duplicate) > 0 {
		return FeatureOrder{}, drift
	}
	return FeatureOrder{
		names:  append([]string(nil), names...),
		fields: fields,
	}, nil
}

// Names returns the feature names in vector order.
func (o FeatureOrder) Names() []string {
	return append([]string(nil), o.names...)
}

func (o FeatureOrder) Len() int {
	return len(o.fields)
}

// Vector extracts the record values in feature order.
func (o FeatureOrder) Vector(rec schema.PatientRecord) []float64 {
	vector := make([]float64, len(o.fields))
	for i, f := range o.fields {
		vector[i] = rec.Value(f)
	}
	return vector
}
