package ml

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"heartapi/schema"
)

// examplePatient is the reference record; its outcome on the testdata
// artifacts is pinned below.
var examplePatient = schema.PatientRecord{
	Age: 63, Sex: 1, ChestPain: 3, RestingBP: 145, Cholesterol: 233, FastingBloodSugar: 1,
	RestECG: 0, MaxHeartRate: 150, ExerciseAngina: 0, Oldpeak: 2.3, Slope: 0, Vessels: 0, Thal: 1,
}

var lowRiskPatient = schema.PatientRecord{
	Age: 67, Sex: 1, ChestPain: 0, RestingBP: 160, Cholesterol: 286, FastingBloodSugar: 0,
	RestECG: 0, MaxHeartRate: 108, ExerciseAngina: 1, Oldpeak: 1.5, Slope: 1, Vessels: 3, Thal: 2,
}

var youngPatient = schema.PatientRecord{
	Age: 41, Sex: 0, ChestPain: 1, RestingBP: 130, Cholesterol: 204, FastingBloodSugar: 0,
	RestECG: 0, MaxHeartRate: 172, ExerciseAngina: 0, Oldpeak: 1.4, Slope: 2, Vessels: 0, Thal: 2,
}

const (
	exampleProbability   = 0.8437383294605757
	lowRiskProbability   = 0.004175065709386135
	youngProbability     = 0.9564033725403654
	probabilityTolerance = 1e-9
)

func testdataPaths() ArtifactPaths {
	return DefaultArtifactPaths("testdata")
}

func loadTestArtifacts(t *testing.T) *Artifacts {
	t.Helper()
	artifacts, err := LoadArtifacts(testdataPaths())
	require.NoError(t, err)
	return artifacts
}

func loadTreeArtifacts(t *testing.T) *Artifacts {
	t.Helper()
	paths := testdataPaths()
	paths.Classifier = filepath.Join("testdata", "tree_model.json")
	artifacts, err := LoadArtifacts(paths)
	require.NoError(t, err)
	return artifacts
}
