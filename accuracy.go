// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.30
//

package gorssi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Accuracy describes the confidence ellipse (2D) or ellipsoid (3D) of a
// position from its covariance matrix.
type Accuracy struct {
	Confidence float64    // Probability that the true position lies inside the region
	Factor     float64    // Number of standard deviations matching Confidence
	StdDevs    []float64  // Standard deviation along each principal axis [m], ascending
	Axes       *mat.Dense // Principal axes as columns, in the order of StdDevs
}

// NewAccuracy computes the confidence region of a position covariance [m^2]
func NewAccuracy(cov mat.Symmetric, confidence float64) (*Accuracy, error) {
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("%w: confidence must be in (0, 1), got %v", ErrInvalidConfig, confidence)
	}
	n := cov.SymmetricDim()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty covariance", ErrInvalidConfig)
	}

	var es mat.EigenSym
	if ok := es.Factorize(cov, true); !ok {
		return nil, fmt.Errorf("eigen decomposition of covariance failed")
	}
	vals := es.Values(nil) // ascending
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	std := make([]float64, n)
	for i, v := range vals {
		// Tolerate round-off below zero
		if v < 0 {
			if v < -1e-9*math.Abs(vals[n-1]) {
				return nil, fmt.Errorf("%w: covariance is not positive semi-definite (eigenvalue %g)", ErrSingular, v)
			}
			v = 0
		}
		std[i] = math.Sqrt(v)
	}

	k := math.Sqrt(distuv.ChiSquared{K: float64(n)}.Quantile(confidence))
	return &Accuracy{Confidence: confidence, Factor: k, StdDevs: std, Axes: &vecs}, nil
}

// SemiAxes returns the semi-axes of the confidence region [m], ascending
func (a *Accuracy) SemiAxes() []float64 {
	s := make([]float64, len(a.StdDevs))
	for i, v := range a.StdDevs {
		s[i] = a.Factor * v
	}
	return s
}

// SmallestMeters returns the smallest semi-axis [m]
func (a *Accuracy) SmallestMeters() float64 {
	return a.Factor * a.StdDevs[0]
}

// LargestMeters returns the largest semi-axis [m], a radius containing the whole region
func (a *Accuracy) LargestMeters() float64 {
	return a.Factor * a.StdDevs[len(a.StdDevs)-1]
}

// AverageMeters returns the mean semi-axis [m]
func (a *Accuracy) AverageMeters() float64 {
	s := 0.0
	for _, v := range a.StdDevs {
		s += v
	}
	return a.Factor * s / float64(len(a.StdDevs))
}
