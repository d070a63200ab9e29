package ml

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadArtifacts(t *testing.T) {
	artifacts := loadTestArtifacts(t)

	assert.Equal(t, TypeLogisticRegression, artifacts.Classifier.Name())
	assert.Equal(t, 13, artifacts.Classifier.NumFeatures())
	assert.Equal(t, []int{0, 1}, artifacts.Classifier.Classes())
	assert.Equal(t, 13, artifacts.Scaler.NumFeatures())
	assert.True(t, artifacts.Scaler.WithMean)
	assert.True(t, artifacts.Scaler.WithStd)
	assert.Equal(t, schemaNames(), artifacts.Features.Names())

	params := artifacts.Classifier.Params()
	assert.Equal(t, "lbfgs", params["solver"])
	assert.Contains(t, params, "class_weight")
	assert.Nil(t, params["class_weight"])
}

func TestLoadArtifacts_DecisionTree(t *testing.T) {
	artifacts := loadTreeArtifacts(t)
	assert.Equal(t, TypeDecisionTree, artifacts.Classifier.Name())
	assert.Equal(t, "gini", artifacts.Classifier.Params()["criterion"])
}

func TestLoadArtifacts_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadArtifacts(DefaultArtifactPaths(dir))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), DefaultClassifierFile)

	paths := testdataPaths()
	paths.Features = filepath.Join(dir, "nope.json")
	_, err = LoadArtifacts(paths)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadArtifacts_FeatureDrift(t *testing.T) {
	dir := t.TempDir()
	paths := testdataPaths()
	paths.Features = writeFile(t, dir, "features.json",
		`["age","sex","cp","trestbps","chol","fbs","restecg","thalach","exang","oldpeak","slope","ca","target"]`)

	_, err := LoadArtifacts(paths)
	require.Error(t, err)
	var drift *DriftError
	require.ErrorAs(t, err, &drift)
	assert.Equal(t, []string{"target"}, drift.Unknown)
	assert.Equal(t, []string{"thal"}, drift.Missing)
}

func TestLoadArtifacts_WidthDrift(t *testing.T) {
	dir := t.TempDir()
	paths := testdataPaths()
	paths.Classifier = writeFile(t, dir, "model.json",
		`{"type": "LogisticRegression", "classes": [0, 1], "coef": [0.1, 0.2], "intercept": 0}`)

	_, err := LoadArtifacts(paths)
	require.Error(t, err)
	var drift *DriftError
	require.ErrorAs(t, err, &drift)
	assert.Contains(t, drift.Reason, "classifier expects 2 features")

	paths = testdataPaths()
	paths.Scaler = writeFile(t, dir, "scaler.json", `{"mean": [1, 2], "scale": [1, 1]}`)
	_, err = LoadArtifacts(paths)
	require.ErrorAs(t, err, &drift)
	assert.Contains(t, drift.Reason, "scaler expects 2 features")
}

func TestParseModel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"type":`},
		{"unknown type", `{"type": "RandomForestClassifier", "classes": [0, 1]}`},
		{"multiclass", `{"type": "LogisticRegression", "classes": [0, 1, 2], "coef": [1]}`},
		{"no coefficients", `{"type": "LogisticRegression", "classes": [0, 1]}`},
		{"bad tree", `{"type": "DecisionTreeClassifier", "classes": [0, 1], "n_features": 1, "nodes": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModel([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestParseModel_DefaultsClassesAndParams(t *testing.T) {
	model, err := ParseModel([]byte(`{"type": "LogisticRegression", "coef": [1], "intercept": 0}`))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, model.Classes())
	assert.NotNil(t, model.Params())
	assert.Empty(t, model.Params())
}

func TestLoadScaler(t *testing.T) {
	dir := t.TempDir()

	scaler, err := LoadScaler(writeFile(t, dir, "a.json", `{"mean": [1], "scale": [2], "with_mean": false}`))
	require.NoError(t, err)
	assert.False(t, scaler.WithMean)
	assert.True(t, scaler.WithStd)

	_, err = LoadScaler(writeFile(t, dir, "b.json", `{"type": "MinMaxScaler", "mean": [1], "scale": [1]}`))
	assert.Error(t, err)

	_, err = LoadScaler(writeFile(t, dir, "c.json", `{"mean": [1, 2], "scale": [1]}`))
	assert.Error(t, err)
}

func TestArtifactPathsAll(t *testing.T) {
	paths := DefaultArtifactPaths("models")
	assert.Equal(t, []string{
		filepath.Join("models", DefaultClassifierFile),
		filepath.Join("models", DefaultScalerFile),
		filepath.Join("models", DefaultFeaturesFile),
	}, paths.All())
}
