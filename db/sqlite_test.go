package db

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *AuditLog {
	t.Helper()
	audit, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })
	return audit
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestSavePredictionsAndRecent(t *testing.T) {
	audit := openTestLog(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	audit.now = func() time.Time { return fixed }
	ctx := context.Background()

	err := audit.SavePredictions(ctx, []PredictionEntry{
		{RequestID: "req-1", Features: []float64{63, 1, 2.3}, Prediction: 1, Probability: 0.84, Label: "Heart Disease"},
		{RequestID: "req-1", BatchIndex: 1, Features: []float64{41, 0, 1.4}, Prediction: 0, Probability: 0.1, Label: "No Heart Disease"},
	})
	require.NoError(t, err)

	n, err := audit.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest := entries[0]
	assert.Equal(t, "req-1", newest.RequestID)
	assert.Equal(t, 1, newest.BatchIndex)
	assert.Equal(t, []float64{41, 0, 1.4}, newest.Features)
	assert.Equal(t, 0, newest.Prediction)
	assert.Equal(t, "No Heart Disease", newest.Label)
	assert.True(t, fixed.Equal(newest.CreatedAt))
	assert.Greater(t, newest.ID, entries[1].ID)
}

func TestRecent_Limit(t *testing.T) {
	audit := openTestLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, audit.SavePredictions(ctx, []PredictionEntry{{RequestID: "r", Features: []float64{float64(i)}}}))
	}

	entries, err := audit.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []float64{4}, entries[0].Features)

	entries, err = audit.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestRecent_Empty(t *testing.T) {
	entries, err := openTestLog(t).Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSavePredictions_Noop(t *testing.T) {
	assert.NoError(t, openTestLog(t).SavePredictions(context.Background(), nil))
}

func TestNilAuditLog(t *testing.T) {
	var audit *AuditLog
	ctx := context.Background()

	assert.Error(t, audit.SavePredictions(ctx, []PredictionEntry{{}}))
	_, err := audit.Recent(ctx, 1)
	assert.Error(t, err)
	_, err = audit.Count(ctx)
	assert.Error(t, err)
	assert.NoError(t, audit.Close())
}

func TestSavePredictions_Concurrent(t *testing.T) {
	audit := openTestLog(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, audit.SavePredictions(ctx, []PredictionEntry{{RequestID: "c", Features: []float64{1}}}))
		}()
	}
	wg.Wait()

	n, err := audit.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.SavePredictions(ctx, []PredictionEntry{{RequestID: "persisted", Features: []float64{}}}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
