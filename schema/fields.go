// Package schema defines the patient record accepted by the prediction API
// and the rules used to validate it.
package schema

// Field identifies one of the patient record attributes.
type Field int

const (
	Age Field = iota
	Sex
	ChestPain
	RestingBP
	Cholesterol
	FastingBloodSugar
	RestECG
	MaxHeartRate
	ExerciseAngina
	Oldpeak
	Slope
	Vessels
	Thal

	numFields = iota
)

// Kind is the numeric type a field accepts.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
)

func (k Kind) String() string {
	if k == KindFloat {
		return "float"
	}
	return "int"
}

// Constraint describes the type and inclusive bounds of a field.
type Constraint struct {
	Kind   Kind
	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

func between(min, max float64) Constraint {
	return Constraint{Kind: KindInt, Min: min, Max: max, HasMin: true, HasMax: true}
}

func atLeast(min float64) Constraint {
	return Constraint{Kind: KindInt, Min: min, HasMin: true}
}

var fieldNames = [numFields]string{
	Age:               "age",
	Sex:               "sex",
	ChestPain:         "cp",
	RestingBP:         "trestbps",
	Cholesterol:       "chol",
	FastingBloodSugar: "fbs",
	RestECG:           "restecg",
	MaxHeartRate:      "thalach",
	ExerciseAngina:    "exang",
	Oldpeak:           "oldpeak",
	Slope:             "slope",
	Vessels:           "ca",
	Thal:              "thal",
}

var fieldConstraints = [numFields]Constraint{
	Age:               between(0, 120),
	Sex:               between(0, 1),
	ChestPain:         between(0, 3),
	RestingBP:         atLeast(0),
	Cholesterol:       atLeast(0),
	FastingBloodSugar: between(0, 1),
	RestECG:           between(0, 2),
	MaxHeartRate:      atLeast(0),
	ExerciseAngina:    between(0, 1),
	Oldpeak:           {Kind: KindFloat},
	Slope:             between(0, 2),
	Vessels:           between(0, 4),
	Thal:              between(0, 3),
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, numFields)
	for i, name := range fieldNames {
		m[name] = Field(i)
	}
	return m
}()

// String returns the wire name of the field.
func (f Field) String() string {
	if f < 0 || int(f) >= numFields {
		return "unknown"
	}
	return fieldNames[f]
}

// Constraint returns the validation rule of the field.
func (f Field) Constraint() Constraint {
	return fieldConstraints[f]
}

// Fields returns every field in declaration order.
func Fields() []Field {
	fields := make([]Field, numFields)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

// FieldByName resolves a wire name such as "trestbps".
func FieldByName(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// NumFields is the width of a complete patient record.
func NumFields() int {
	return numFields
}
