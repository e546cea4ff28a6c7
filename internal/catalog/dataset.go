package catalog

import (
	"math/rand/v2"
)

// Features is the dimensionality of Blobs samples.
const Features = 4

// Dataset is a labelled design matrix. Labels are 0 or 1.
type Dataset struct {
	X [][]float64
	Y []int
}

// Len returns the number of samples.
func (d Dataset) Len() int {
	return len(d.Y)
}

// Subset returns the samples at idx, in order.
func (d Dataset) Subset(idx []int) Dataset {
	out := Dataset{X: make([][]float64, len(idx)), Y: make([]int, len(idx))}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.Y[i] = d.Y[j]
	}
	return out
}

// Blobs draws n samples from two isotropic Gaussian clusters centred at
// -1 and +1 on every axis. Classes alternate so both are always present.
// The same seed always yields the same dataset.
func Blobs(n int, seed uint64) Dataset {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	d := Dataset{X: make([][]float64, n), Y: make([]int, n)}
	for i := range n {
		label := i % 2
		centre := -1.0
		if label == 1 {
			centre = 1.0
		}
		x := make([]float64, Features)
		for f := range x {
			x[f] = centre + rng.NormFloat64()
		}
		d.X[i] = x
		d.Y[i] = label
	}
	return d
}

// permutation returns a seeded shuffle of 0..n-1.
func permutation(n int, seed uint64) []int {
	rng := rand.New(rand.NewPCG(seed, ^seed))
	return rng.Perm(n)
}
