package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
)

// Classifier types understood by LoadModel.
const (
	TypeLogisticRegression = "LogisticRegression"
	TypeDecisionTree       = "DecisionTreeClassifier"
	TypeStandardScaler     = "StandardScaler"
)

// Default artifact file names inside the model directory.
const (
	DefaultClassifierFile = "logistic_model.json"
	DefaultScalerFile     = "scaler.json"
	DefaultFeaturesFile   = "features.json"
)

var binaryClasses = []int{0, 1}

type modelFile struct {
	Type    string         `json:"type"`
	Classes []int          `json:"classes"`
	Params  map[string]any `json:"params"`

	// LogisticRegression
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`

	// DecisionTreeClassifier
	NFeatures int        `json:"n_features"`
	Nodes     []TreeNode `json:"nodes"`
}

type scalerFile struct {
	Type     string    `json:"type"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
	WithMean *bool     `json:"with_mean"`
	WithStd  *bool     `json:"with_std"`
}

// LoadModel reads a classifier artifact. The model type is taken from the
// artifact itself.
func LoadModel(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading classifier %s", path)
	}
	model, err := ParseModel(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing classifier %s", path)
	}
	return model, nil
}

// ParseModel decodes a classifier artifact.
func ParseModel(payload []byte) (Classifier, error) {
	var mf modelFile
	if err := json.Unmarshal(payload, &mf); err != nil {
		return nil, err
	}
	if mf.Classes == nil {
		mf.Classes = binaryClasses
	}
	if !slices.Equal(mf.Classes, binaryClasses) {
		return nil, errors.Errorf("classifier classes must be %v, got %v", binaryClasses, mf.Classes)
	}
	if mf.Params == nil {
		mf.Params = map[string]any{}
	}

	switch mf.Type {
	case TypeLogisticRegression:
		if len(mf.Coef) == 0 {
			return nil, errors.New("logistic regression has no coefficients")
		}
		return &LogisticRegression{
			Coef:      mf.Coef,
			Intercept: mf.Intercept,
			classes:   mf.Classes,
			params:    mf.Params,
		}, nil
	case TypeDecisionTree:
		tree := &DecisionTree{
			nodes:     mf.Nodes,
			nFeatures: mf.NFeatures,
			classes:   mf.Classes,
			params:    mf.Params,
		}
		if err := tree.validate(); err != nil {
			return nil, err
		}
		return tree, nil
	default:
		return nil, errors.Errorf("unsupported model type %q", mf.Type)
	}
}

// LoadScaler reads a StandardScaler artifact.
func LoadScaler(path string) (*StandardScaler, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scaler %s", path)
	}
	var sf scalerFile
	if err := json.Unmarshal(payload, &sf); err != nil {
		return nil, errors.Wrapf(err, "parsing scaler %s", path)
	}
	if sf.Type != "" && sf.Type != TypeStandardScaler {
		return nil, errors.Errorf("unsupported scaler type %q in %s", sf.Type, path)
	}

	scaler := &StandardScaler{
		Mean:     sf.Mean,
		Scale:    sf.Scale,
		WithMean: sf.WithMean == nil || *sf.WithMean,
		WithStd:  sf.WithStd == nil || *sf.WithStd,
	}
	if err := scaler.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid scaler %s", path)
	}
	return scaler, nil
}

// LoadFeatureOrder reads the JSON list of feature names and binds it to the
// schema.
func LoadFeatureOrder(path string) (FeatureOrder, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return FeatureOrder{}, errors.Wrapf(err, "reading features %s", path)
	}
	var names []string
	if err := json.Unmarshal(payload, &names); err != nil {
		return FeatureOrder{}, errors.Wrapf(err, "parsing features %s", path)
	}
	order, err := NewFeatureOrder(names)
	if err != nil {
		return FeatureOrder{}, errors.Wrapf(err, "binding features %s", path)
	}
	return order, nil
}

// ArtifactPaths locates the three model artifacts.
type ArtifactPaths struct {
	Classifier string
	Scaler     string
	Features   string
}

// DefaultArtifactPaths returns the default artifact names inside dir.
func DefaultArtifactPaths(dir string) ArtifactPaths {
	return ArtifactPaths{
		Classifier: filepath.Join(dir, DefaultClassifierFile),
		Scaler:     filepath.Join(dir, DefaultScalerFile),
		Features:   filepath.Join(dir, DefaultFeaturesFile),
	}
}

// All returns the artifact paths in load order.
func (p ArtifactPaths) All() []string {
	return []string{p.Classifier, p.Scaler, p.Features}
}

// Artifacts groups the loaded model components.
type Artifacts struct {
	Classifier Classifier
	Scaler     *StandardScaler
	Features   FeatureOrder
}

// LoadArtifacts loads and cross-checks the classifier, scaler and feature
// list. Width mismatches are reported as *DriftError.
func LoadArtifacts(paths ArtifactPaths) (*Artifacts, error) {
	classifier, err := LoadModel(paths.Classifier)
	if err != nil {
		return nil, err
	}
	scaler, err := LoadScaler(paths.Scaler)
	if err != nil {
		return nil, err
	}
	features, err := LoadFeatureOrder(paths.Features)
	if err != nil {
		return nil, err
	}

	artifacts := &Artifacts{Classifier: classifier, Scaler: scaler, Features: features}
	if err := artifacts.check(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (a *Artifacts) check() error {
	if a.Classifier == nil || a.Scaler == nil {
		return errors.New("incomplete artifacts")
	}
	if n := a.Scaler.NumFeatures(); n > 0 && n != a.Features.Len() {
		return widthDrift("scaler", n, a.Features.Len())
	}
	if n := a.Classifier.NumFeatures(); n != a.Features.Len() {
		return widthDrift("classifier", n, a.Features.Len())
	}
	return nil
}
