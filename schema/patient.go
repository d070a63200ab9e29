package schema

import "fmt"

// PatientRecord is a single set of clinical measurements.
type PatientRecord struct {
	Age               int     `json:"age" yaml:"age"`
	Sex               int     `json:"sex" yaml:"sex"`
	ChestPain         int     `json:"cp" yaml:"cp"`
	RestingBP         int     `json:"trestbps" yaml:"trestbps"`
	Cholesterol       int     `json:"chol" yaml:"chol"`
	FastingBloodSugar int     `json:"fbs" yaml:"fbs"`
	RestECG           int     `json:"restecg" yaml:"restecg"`
	MaxHeartRate      int     `json:"thalach" yaml:"thalach"`
	ExerciseAngina    int     `json:"exang" yaml:"exang"`
	Oldpeak           float64 `json:"oldpeak" yaml:"oldpeak"`
	Slope             int     `json:"slope" yaml:"slope"`
	Vessels           int     `json:"ca" yaml:"ca"`
	Thal              int     `json:"thal" yaml:"thal"`
}

// Value returns the numeric value stored for f.
func (p PatientRecord) Value(f Field) float64 {
	switch f {
	case Age:
		return float64(p.Age)
	case Sex:
		return float64(p.Sex)
	case ChestPain:
		return float64(p.ChestPain)
	case RestingBP:
		return float64(p.RestingBP)
	case Cholesterol:
		return float64(p.Cholesterol)
	case FastingBloodSugar:
		return float64(p.FastingBloodSugar)
	case RestECG:
		return float64(p.RestECG)
	case MaxHeartRate:
		return float64(p.MaxHeartRate)
	case ExerciseAngina:
		return float64(p.ExerciseAngina)
	case Oldpeak:
		return p.Oldpeak
	case Slope:
		return float64(p.Slope)
	case Vessels:
		return float64(p.Vessels)
	case Thal:
		return float64(p.Thal)
	}
	panic(fmt.Sprintf("schema: unknown field %d", int(f)))
}

func (p *PatientRecord) set(f Field, v float64) {
	switch f {
	case Age:
		p.Age = int(v)
	case Sex:
		p.Sex = int(v)
	case ChestPain:
		p.ChestPain = int(v)
	case RestingBP:
		p.RestingBP = int(v)
	case Cholesterol:
		p.Cholesterol = int(v)
	case FastingBloodSugar:
		p.FastingBloodSugar = int(v)
	case RestECG:
		p.RestECG = int(v)
	case MaxHeartRate:
		p.MaxHeartRate = int(v)
	case ExerciseAngina:
		p.ExerciseAngina = int(v)
	case Oldpeak:
		p.Oldpeak = v
	case Slope:
		p.Slope = int(v)
	case Vessels:
		p.Vessels = int(v)
	case Thal:
		p.Thal = int(v)
	}
}

// Validate checks every field against its bounds. It is used for records
// built in code; records decoded from JSON are validated while decoding.
func (p PatientRecord) Validate() error {
	var errs []FieldError
	for _, f := range Fields() {
		if fe, ok := checkBounds(f, p.Value(f), []any{f.String()}); !ok {
			errs = append(errs, fe)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
