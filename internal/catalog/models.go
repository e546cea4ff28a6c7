package catalog

import (
	"fmt"
	"math/rand/v2"
)

// Classifier is a binary classifier. Fit may be called more than once;
// each call starts from scratch.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
	// Clone returns an unfitted copy with the same hyperparameters.
	Clone() Classifier
}

// LinearSVC is a linear support vector classifier trained with the Pegasos
// stochastic sub-gradient method on the hinge loss. The bias is treated as
// a weight on a constant feature and is regularized with the rest.
type LinearSVC struct {
	C      float64 `mapstructure:"C" json:"C"`
	Epochs int     `mapstructure:"epochs" json:"epochs"`
	Seed   uint64  `mapstructure:"seed" json:"seed"`

	Weights []float64 `mapstructure:"-" json:"weights,omitempty"`
	Bias    float64   `mapstructure:"-" json:"bias"`
}

// NewLinearSVC returns a LinearSVC with default hyperparameters.
func NewLinearSVC() *LinearSVC {
	return &LinearSVC{C: 1, Epochs: 20, Seed: 1}
}

func (m *LinearSVC) Fit(X [][]float64, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	if m.C <= 0 {
		return fmt.Errorf("linear svc: C must be positive, got %v", m.C)
	}
	n, dim := len(X), len(X[0])
	lambda := 1 / (m.C * float64(n))
	rng := rand.New(rand.NewPCG(m.Seed, m.Seed+1))

	w := make([]float64, dim)
	b := 0.0
	epochs := max(m.Epochs, 1)
	for t := 1; t <= epochs*n; t++ {
		i := rng.IntN(n)
		eta := 1 / (lambda * float64(t))
		label := sign(y[i])
		margin := label * (dot(w, X[i]) + b)
		shrink := 1 - eta*lambda
		for j := range w {
			w[j] *= shrink
		}
		b *= shrink
		if margin < 1 {
			for j := range w {
				w[j] += eta * label * X[i][j]
			}
			b += eta * label
		}
	}
	m.Weights, m.Bias = w, b
	return nil
}

func (m *LinearSVC) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		if len(m.Weights) == len(x) && dot(m.Weights, x)+m.Bias >= 0 {
			out[i] = 1
		}
	}
	return out
}

func (m *LinearSVC) Clone() Classifier {
	return &LinearSVC{C: m.C, Epochs: m.Epochs, Seed: m.Seed}
}

// NearestCentroid assigns each sample to the class with the closest mean.
type NearestCentroid struct {
	Centroids [2][]float64 `mapstructure:"-" json:"centroids"`
}

func (m *NearestCentroid) Fit(X [][]float64, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	dim := len(X[0])
	var counts [2]float64
	sums := [2][]float64{make([]float64, dim), make([]float64, dim)}
	for i, x := range X {
		c := y[i]
		counts[c]++
		for j, v := range x {
			sums[c][j] += v
		}
	}
	for c := range sums {
		if counts[c] == 0 {
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= counts[c]
		}
	}
	m.Centroids = sums
	return nil
}

func (m *NearestCentroid) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		if sqDist(x, m.Centroids[1]) < sqDist(x, m.Centroids[0]) {
			out[i] = 1
		}
	}
	return out
}

func (m *NearestCentroid) Clone() Classifier {
	return &NearestCentroid{}
}

// Majority always predicts the most frequent training label, preferring 0
// on ties.
type Majority struct {
	Label int `mapstructure:"-" json:"label"`
}

func (m *Majority) Fit(X [][]float64, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	ones := 0
	for _, v := range y {
		ones += v
	}
	m.Label = 0
	if 2*ones > len(y) {
		m.Label = 1
	}
	return nil
}

func (m *Majority) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range out {
		out[i] = m.Label
	}
	return out
}

func (m *Majority) Clone() Classifier {
	return &Majority{}
}

func checkFit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("fit: no samples")
	}
	if len(X) != len(y) {
		return fmt.Errorf("fit: %d samples but %d labels", len(X), len(y))
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("fit: label %d at sample %d is not 0 or 1", v, i)
		}
	}
	return nil
}

func sign(label int) float64 {
	if label == 1 {
		return 1
	}
	return -1
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func sqDist(a, b []float64) float64 {
	if len(b) != len(a) {
		return 0
	}
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// accuracy is the fraction of predictions equal to the labels.
func accuracy(pred, y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	hits := 0
	for i := range y {
		if pred[i] == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(y))
}
