package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gauntlet/internal/registry"
	"github.com/roach88/gauntlet/internal/results"
)

func TestCrossValidation_Columns(t *testing.T) {
	cv := &CrossValidation{Folds: 3, Samples: 60, Seed: 1}
	row, err := cv.Run(context.Background(), &Majority{}, registry.Call{})
	require.NoError(t, err)

	for _, col := range CrossValidationColumns(3) {
		assert.Contains(t, row, col)
	}
	assert.Len(t, row, 5)

	mean, ok := row["mean_score"].(results.Float)
	require.True(t, ok)
	assert.InDelta(t, 0.5, float64(mean), 0.2)
}

func TestCrossValidation_Deterministic(t *testing.T) {
	cv := NewCrossValidation()
	a, err := cv.Run(context.Background(), NewLinearSVC(), registry.Call{})
	require.NoError(t, err)
	b, err := cv.Run(context.Background(), NewLinearSVC(), registry.Call{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCrossValidation_SavesFoldModels(t *testing.T) {
	dir := t.TempDir()
	cv := &CrossValidation{Folds: 2, Samples: 40, Seed: 1}

	_, err := cv.Run(context.Background(), &NearestCentroid{}, registry.Call{ModelArtefactsDir: dir})
	require.NoError(t, err)

	for _, name := range []string{"fold_0.json", "fold_1.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		var saved NearestCentroid
		require.NoError(t, json.Unmarshal(data, &saved))
		assert.Len(t, saved.Centroids[0], Features)
	}
}

func TestCrossValidation_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := (&CrossValidation{Folds: 1, Samples: 10}).Run(ctx, &Majority{}, registry.Call{})
	assert.Error(t, err)
	_, err = (&CrossValidation{Folds: 5, Samples: 3}).Run(ctx, &Majority{}, registry.Call{})
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewCrossValidation().Run(cancelled, &Majority{}, registry.Call{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHoldout(t *testing.T) {
	row, err := NewHoldout().Run(context.Background(), &NearestCentroid{}, registry.Call{})
	require.NoError(t, err)
	require.Len(t, row, 1)
	acc := float64(row["result"].(results.Float))
	assert.Greater(t, acc, 0.8)

	_, err = (&Holdout{TestFraction: 1.5, Samples: 10}).Run(context.Background(), &Majority{}, registry.Call{})
	assert.Error(t, err)
}

func TestCatalogs_Resolve(t *testing.T) {
	models := Models()
	for _, attr := range []string{"LinearSVC", "NearestCentroid", "Majority"} {
		assert.True(t, models.Has(Ref(ModelsModule, attr)), attr)
	}
	validations := Validations()
	assert.True(t, validations.Has(Ref(ValidationsModule, "CrossValidation")))
	assert.True(t, validations.Has(Ref(ValidationsModule, "Holdout")))

	f, err := models.Resolve(Ref(ModelsModule, "LinearSVC"))
	require.NoError(t, err)
	m, err := f(registry.Kwargs{"C": 0.25, "epochs": 5})
	require.NoError(t, err)
	assert.Equal(t, &LinearSVC{C: 0.25, Epochs: 5, Seed: 1}, m)

	_, err = f(registry.Kwargs{"gamma": 1})
	assert.Error(t, err, "unknown kwargs are rejected")
}
