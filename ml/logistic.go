package ml

import (
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	Coef      []float64
	Intercept float64

	classes []int
	params  map[string]any
}

func (m *LogisticRegression) Name() string {
	return TypeLogisticRegression
}

func (m *LogisticRegression) NumFeatures() int {
	return len(m.Coef)
}

func (m *LogisticRegression) Classes() []int {
	return append([]int(nil), m.classes...)
}

func (m *LogisticRegression) Params() map[string]any {
	return copyParams(m.params)
}

// DecisionFunction returns the signed distance to the separating hyperplane.
func (m *LogisticRegression) DecisionFunction(features []float64) (float64, error) {
	if len(m.Coef) == 0 {
		return 0, errors.New("model not trained")
	}
	if len(features) != len(m.Coef) {
		return 0, fmt.Errorf("model expects %d features, got %d", len(m.Coef), len(features))
	}
	d := m.Intercept
	for i, w := range m.Coef {
		d += w * features[i]
	}
	return d, nil
}

func (m *LogisticRegression) Predict(features []float64) (int, error) {
	d, err := m.DecisionFunction(features)
	if err != nil {
		return 0, err
	}
	if d > 0 {
		return m.classes[1], nil
	}
	return m.classes[0], nil
}

func (m *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	d, err := m.DecisionFunction(features)
	if err != nil {
		return nil, err
	}
	p := sigmoid(d)
	return []float64{1 - p, p}, nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
