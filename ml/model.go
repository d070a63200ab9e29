package ml

// Classifier is a fitted binary classifier over a fixed-width vector.
type Classifier interface {
	// Name is the model type reported by model introspection.
	Name() string
	NumFeatures() int
	Classes() []int
	Predict(features []float64) (int, error)
	// PredictProba returns one probability per entry of Classes.
	PredictProba(features []float64) ([]float64, error)
	Params() map[string]any
}

func copyParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
