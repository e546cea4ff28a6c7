package catalog_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gauntlet/internal/catalog"
	"github.com/roach88/gauntlet/internal/engine"
	"github.com/roach88/gauntlet/internal/registry"
	"github.com/roach88/gauntlet/internal/results"
	"github.com/roach88/gauntlet/internal/store"
)

func registries() (*registry.Registry[catalog.Classifier], *registry.ValidationRegistry[catalog.Classifier]) {
	models := registry.NewRegistry(registry.WithCatalog(catalog.Models()))
	models.MustRegister("SVC-v1", registry.Ref[catalog.Classifier](catalog.Ref(catalog.ModelsModule, "LinearSVC")))
	models.MustRegister("SVC-v2", registry.Ref[catalog.Classifier](catalog.Ref(catalog.ModelsModule, "LinearSVC")),
		registry.WithKwargs(registry.Kwargs{"C": 0.5}))

	validations := registry.NewValidationRegistry(registry.WithCatalog(catalog.Validations()))
	validations.MustRegister("cross_validation-v1",
		registry.Ref[catalog.Validation](catalog.Ref(catalog.ValidationsModule, "CrossValidation")),
		registry.WithKwargs(registry.Kwargs{"folds": 5}),
		registry.WithOutputCols(catalog.CrossValidationColumns(5)...))
	validations.MustRegister("cross_validation-v2",
		registry.Ref[catalog.Validation](catalog.Ref(catalog.ValidationsModule, "CrossValidation")),
		registry.WithKwargs(registry.Kwargs{"folds": 10}),
		registry.WithOutputCols(catalog.CrossValidationColumns(10)...))
	return models, validations
}

func TestEndToEnd_SVCCrossValidation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "validation_results.csv"))
	require.NoError(t, err)
	defer st.Close()

	models, validations := registries()
	eng := engine.New(st, models, validations, engine.WithLogger(slog.New(slog.DiscardHandler)))

	got, err := eng.Run(ctx, engine.RunOptions{ArtefactsDir: filepath.Join(dir, "artefacts")})
	require.NoError(t, err)

	require.Equal(t, 4, got.Len())
	want := []results.Pair{
		{ValidationID: "cross_validation-v1", ModelID: "SVC-v1"},
		{ValidationID: "cross_validation-v1", ModelID: "SVC-v2"},
		{ValidationID: "cross_validation-v2", ModelID: "SVC-v1"},
		{ValidationID: "cross_validation-v2", ModelID: "SVC-v2"},
	}
	for i, p := range want {
		gotPair, ok := got.Rows[i].Pair()
		require.True(t, ok)
		assert.Equal(t, p, gotPair)

		mean, ok := got.Value(i, "mean_score").(results.Float)
		require.True(t, ok)
		assert.Greater(t, float64(mean), 0.8)
	}

	// Five-fold rows have no fold_9_score.
	assert.True(t, results.IsNull(got.Value(0, "fold_9_score")))
	assert.False(t, results.IsNull(got.Value(2, "fold_9_score")))

	_, err = os.Stat(filepath.Join(dir, "artefacts", "cross_validation-v2", "SVC-v1", "fold_9.json"))
	assert.NoError(t, err)

	// Parallel run over the same pairs reproduces the serial scores.
	pst, err := store.Open(filepath.Join(dir, "parallel.db"))
	require.NoError(t, err)
	defer pst.Close()
	par, err := engine.New(pst, models, validations, engine.WithLogger(slog.New(slog.DiscardHandler))).
		RunParallel(ctx, engine.RunOptions{Workers: 4})
	require.NoError(t, err)
	for i := range want {
		assert.Equal(t, got.Value(i, "mean_score"), par.Value(i, "mean_score"))
	}
}
