package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobs_Deterministic(t *testing.T) {
	a, b := Blobs(50, 3), Blobs(50, 3)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a.X, Blobs(50, 4).X)

	ones := 0
	for _, y := range a.Y {
		ones += y
	}
	assert.Equal(t, 25, ones)
	assert.Len(t, a.X[0], Features)
}

func TestClassifiers_LearnBlobs(t *testing.T) {
	train, test := Blobs(300, 1), Blobs(200, 2)

	tests := []struct {
		name string
		m    Classifier
		min  float64
	}{
		{"linear svc", NewLinearSVC(), 0.85},
		{"nearest centroid", &NearestCentroid{}, 0.85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.m.Fit(train.X, train.Y))
			acc := accuracy(tt.m.Predict(test.X), test.Y)
			assert.GreaterOrEqual(t, acc, tt.min)
		})
	}
}

func TestMajority(t *testing.T) {
	m := &Majority{}
	require.NoError(t, m.Fit([][]float64{{0}, {0}, {0}}, []int{1, 1, 0}))
	assert.Equal(t, []int{1, 1}, m.Predict([][]float64{{5}, {-5}}))

	require.NoError(t, m.Fit([][]float64{{0}, {0}}, []int{1, 0}))
	assert.Equal(t, 0, m.Label, "ties prefer 0")
}

func TestClone_IsUnfitted(t *testing.T) {
	data := Blobs(40, 5)
	svc := &LinearSVC{C: 0.5, Epochs: 3, Seed: 9}
	require.NoError(t, svc.Fit(data.X, data.Y))
	require.NotEmpty(t, svc.Weights)

	clone := svc.Clone().(*LinearSVC)
	assert.Equal(t, 0.5, clone.C)
	assert.Equal(t, 3, clone.Epochs)
	assert.Empty(t, clone.Weights)
}

func TestFit_RejectsBadInput(t *testing.T) {
	svc := NewLinearSVC()
	assert.Error(t, svc.Fit(nil, nil))
	assert.Error(t, svc.Fit([][]float64{{1}}, []int{1, 0}))
	assert.Error(t, svc.Fit([][]float64{{1}}, []int{2}))

	bad := &LinearSVC{C: 0, Epochs: 1}
	assert.Error(t, bad.Fit([][]float64{{1}}, []int{1}))
}
