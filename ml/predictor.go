package ml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"heartapi/schema"
)

// Display labels of the two classes.
const (
	LabelHeartDisease   = "Heart Disease"
	LabelNoHeartDisease = "No Heart Disease"
)

const positiveClass = 1

// Prediction is the outcome for one patient.
type Prediction struct {
	Label        int     `json:"prediction"`
	Probability  float64 `json:"probability"`
	DisplayLabel string  `json:"prediction_label"`
}

// DisplayLabel maps a class label to its human readable form.
func DisplayLabel(label int) string {
	if label == positiveClass {
		return LabelHeartDisease
	}
	return LabelNoHeartDisease
}

// ModelInfo describes the loaded classifier.
type ModelInfo struct {
	ModelType  string         `json:"model_type" yaml:"model_type"`
	Features   []string       `json:"features" yaml:"features"`
	Parameters map[string]any `json:"parameters" yaml:"parameters"`
}

// Option configures a Predictor.
type Option func(*Predictor) error

// WithCacheSize memoizes up to size predictions keyed by the raw feature
// vector. Zero disables the cache.
func WithCacheSize(size int) Option {
	return func(p *Predictor) error {
		if size < 0 {
			return fmt.Errorf("cache size must not be negative, got %d", size)
		}
		if size == 0 {
			p.cache = nil
			return nil
		}
		cache, err := lru.New[string, Prediction](size)
		if err != nil {
			return err
		}
		p.cache = cache
		return nil
	}
}

// Predictor runs the scale-then-classify pipeline over loaded artifacts. It
// holds no mutable state apart from the optional cache and is safe for
// concurrent use. A nil *Predictor reports ErrModelUnavailable.
type Predictor struct {
	artifacts *Artifacts
	positive  int
	cache     *lru.Cache[string, Prediction]
}

// NewPredictor validates the artifacts and builds a Predictor.
func NewPredictor(artifacts *Artifacts, opts ...Option) (*Predictor, error) {
	if artifacts == nil {
		return nil, errors.New("artifacts are required")
	}
	if err := artifacts.check(); err != nil {
		return nil, err
	}

	positive := -1
	for i, c := range artifacts.Classifier.Classes() {
		if c == positiveClass {
			positive = i
		}
	}
	if positive < 0 {
		return nil, fmt.Errorf("classifier has no class %d", positiveClass)
	}

	p := &Predictor{artifacts: artifacts, positive: positive}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Loaded reports whether the predictor is backed by artifacts.
func (p *Predictor) Loaded() bool {
	return p != nil && p.artifacts != nil
}

// Vector builds the feature vector of rec in artifact order.
func (p *Predictor) Vector(rec schema.PatientRecord) ([]float64, error) {
	if !p.Loaded() {
		return nil, ErrModelUnavailable
	}
	return p.artifacts.Features.Vector(rec), nil
}

// Predict validates rec, builds its vector and classifies it.
func (p *Predictor) Predict(rec schema.PatientRecord) (Prediction, error) {
	if !p.Loaded() {
		return Prediction{}, ErrModelUnavailable
	}
	if err := rec.Validate(); err != nil {
		return Prediction{}, err
	}
	return p.PredictVector(p.artifacts.Features.Vector(rec))
}

// PredictBatch validates every record before running any inference and
// returns predictions in input order.
func (p *Predictor) PredictBatch(records []schema.PatientRecord) ([]Prediction, error) {
	if !p.Loaded() {
		return nil, ErrModelUnavailable
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("patient %d: %w", i, err)
		}
	}

	predictions := make([]Prediction, len(records))
	for i, rec := range records {
		pred, err := p.PredictVector(p.artifacts.Features.Vector(rec))
		if err != nil {
			return nil, fmt.Errorf("patient %d: %w", i, err)
		}
		predictions[i] = pred
	}
	return predictions, nil
}

// PredictVector scales a raw vector and classifies it. Dimension errors are
// reported as *DriftError.
func (p *Predictor) PredictVector(vector []float64) (Prediction, error) {
	if !p.Loaded() {
		return Prediction{}, ErrModelUnavailable
	}

	var key string
	if p.cache != nil {
		key = vectorKey(vector)
		if pred, ok := p.cache.Get(key); ok {
			return pred, nil
		}
	}

	scaled, err := p.artifacts.Scaler.Transform(vector)
	if err != nil {
		return Prediction{}, &DriftError{Reason: err.Error()}
	}
	label, err := p.artifacts.Classifier.Predict(scaled)
	if err != nil {
		return Prediction{}, &DriftError{Reason: err.Error()}
	}
	proba, err := p.artifacts.Classifier.PredictProba(scaled)
	if err != nil {
		return Prediction{}, &DriftError{Reason: err.Error()}
	}

	pred := Prediction{
		Label:        label,
		Probability:  proba[p.positive],
		DisplayLabel: DisplayLabel(label),
	}
	if p.cache != nil {
		p.cache.Add(key, pred)
	}
	return pred, nil
}

// Info describes the loaded classifier.
func (p *Predictor) Info() (ModelInfo, error) {
	if !p.Loaded() {
		return ModelInfo{}, ErrModelUnavailable
	}
	return ModelInfo{
		ModelType:  p.artifacts.Classifier.Name(),
		Features:   p.artifacts.Features.Names(),
		Parameters: p.artifacts.Classifier.Params(),
	}, nil
}

func vectorKey(vector []float64) string {
	var sb strings.Builder
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}
