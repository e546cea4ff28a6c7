package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/roach88/gauntlet/internal/registry"
	"github.com/roach88/gauntlet/internal/results"
)

// CrossValidation scores a classifier with k-fold cross-validation on a
// Blobs dataset.
type CrossValidation struct {
	Folds   int    `mapstructure:"folds"`
	Samples int    `mapstructure:"samples"`
	Seed    uint64 `mapstructure:"seed"`
}

// NewCrossValidation returns a 5-fold validation over 200 samples.
func NewCrossValidation() *CrossValidation {
	return &CrossValidation{Folds: 5, Samples: 200, Seed: 7}
}

// FoldColumn names the score column of fold i.
func FoldColumn(i int) string {
	return fmt.Sprintf("fold_%d_score", i)
}

// CrossValidationColumns lists the columns produced by a CrossValidation
// with the given number of folds.
func CrossValidationColumns(folds int) []string {
	cols := make([]string, 0, folds+2)
	for i := range folds {
		cols = append(cols, FoldColumn(i))
	}
	return append(cols, "mean_score", "std_score")
}

// Run fits a clone of model on each training split and scores it on the
// held-out fold. When the model artefacts directory is set, each fitted
// fold model is saved there as fold_{i}.json.
func (cv *CrossValidation) Run(ctx context.Context, model Classifier, call registry.Call) (results.Row, error) {
	if cv.Folds < 2 {
		return nil, fmt.Errorf("cross validation: need at least 2 folds, got %d", cv.Folds)
	}
	if cv.Samples < cv.Folds {
		return nil, fmt.Errorf("cross validation: %d samples cannot fill %d folds", cv.Samples, cv.Folds)
	}

	data := Blobs(cv.Samples, cv.Seed)
	order := permutation(data.Len(), cv.Seed)
	row := make(results.Row, cv.Folds+2)
	scores := make([]float64, cv.Folds)

	for i := range cv.Folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lo, hi := i*len(order)/cv.Folds, (i+1)*len(order)/cv.Folds
		train := append(append([]int(nil), order[:lo]...), order[hi:]...)
		test := order[lo:hi]

		fold := model.Clone()
		trainSet, testSet := data.Subset(train), data.Subset(test)
		if err := fold.Fit(trainSet.X, trainSet.Y); err != nil {
			return nil, fmt.Errorf("fold %d: %w", i, err)
		}
		scores[i] = accuracy(fold.Predict(testSet.X), testSet.Y)
		row[FoldColumn(i)] = results.Float(scores[i])

		if call.ModelArtefactsDir != "" {
			if err := saveModel(filepath.Join(call.ModelArtefactsDir, fmt.Sprintf("fold_%d.json", i)), fold); err != nil {
				return nil, err
			}
		}
	}

	mean, std := meanStd(scores)
	row["mean_score"] = results.Float(mean)
	row["std_score"] = results.Float(std)
	return row, nil
}

// Holdout scores a classifier on a single held-out split.
type Holdout struct {
	TestFraction float64 `mapstructure:"test_fraction"`
	Samples      int     `mapstructure:"samples"`
	Seed         uint64  `mapstructure:"seed"`
}

// NewHoldout returns a 25% holdout over 200 samples.
func NewHoldout() *Holdout {
	return &Holdout{TestFraction: 0.25, Samples: 200, Seed: 11}
}

// Run fits model on the training split and reports test accuracy under
// "result".
func (h *Holdout) Run(ctx context.Context, model Classifier, _ registry.Call) (results.Row, error) {
	if h.TestFraction <= 0 || h.TestFraction >= 1 {
		return nil, fmt.Errorf("holdout: test_fraction must be in (0, 1), got %v", h.TestFraction)
	}
	data := Blobs(h.Samples, h.Seed)
	order := permutation(data.Len(), h.Seed)
	cut := int(math.Round(float64(len(order)) * (1 - h.TestFraction)))
	if cut <= 0 || cut >= len(order) {
		return nil, fmt.Errorf("holdout: %d samples too few for test_fraction %v", h.Samples, h.TestFraction)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := model.Clone()
	train, test := data.Subset(order[:cut]), data.Subset(order[cut:])
	if err := m.Fit(train.X, train.Y); err != nil {
		return nil, fmt.Errorf("holdout: %w", err)
	}
	return results.Row{"result": results.Float(accuracy(m.Predict(test.X), test.Y))}, nil
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

func saveModel(path string, m Classifier) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}
