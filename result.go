// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.2
//

package gorssi

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FitResult contains the emitter parameters fitted by Estimator.Estimate.
// Parameters that were not estimated hold their initial values.
type FitResult struct {
	Position            Point         // Emitter position
	TransmittedPowerDbm float64       // Transmitted power [dBm]
	PathLossExponent    float64       // Path loss exponent
	Covariance          *mat.SymDense // Covariance of the estimated unknowns, in packing order
	ChiSq               float64       // Weighted sum of squared residuals at the solution [dB^2]
	NumReadings         int           // Number of readings used in the fit
	Iterations          int           // Number of accepted solver iterations
	layout              paramLayout
}

// TransmittedPower returns the transmitted power in mW
func (r *FitResult) TransmittedPower() float64 {
	return DbmToMilliwatt(r.TransmittedPowerDbm)
}

// Dof returns the degrees of freedom of the fit (readings - unknowns)
func (r *FitResult) Dof() int {
	return r.NumReadings - r.layout.NumUnknowns()
}

// PositionCovariance returns the dims x dims covariance of the position [m^2],
// or nil if the position was not estimated
func (r *FitResult) PositionCovariance() *mat.SymDense {
	i := r.layout.positionIndex()
	if i < 0 || r.Covariance == nil {
		return nil
	}
	return subCovariance(r.Covariance, i, r.layout.dims)
}

// TransmittedPowerVariance returns the variance of the transmitted power [dB^2].
// ok is false if the power was not estimated.
func (r *FitResult) TransmittedPowerVariance() (v float64, ok bool) {
	i := r.layout.powerIndex()
	if i < 0 || r.Covariance == nil {
		return 0, false
	}
	return r.Covariance.At(i, i), true
}

// TransmittedPowerVarianceMilliwatt returns the variance of the linear transmitted power [mW^2]
func (r *FitResult) TransmittedPowerVarianceMilliwatt() (float64, bool) {
	v, ok := r.TransmittedPowerVariance()
	if !ok {
		return 0, false
	}
	return DbmVarianceToMilliwatt(r.TransmittedPowerDbm, v), true
}

// PathLossExponentVariance returns the variance of the path loss exponent.
// ok is false if the exponent was not estimated.
func (r *FitResult) PathLossExponentVariance() (v float64, ok bool) {
	i := r.layout.pathLossIndex()
	if i < 0 || r.Covariance == nil {
		return 0, false
	}
	return r.Covariance.At(i, i), true
}

// PositionAccuracy returns the confidence region of the position
func (r *FitResult) PositionAccuracy(confidence float64) (*Accuracy, error) {
	cov := r.PositionCovariance()
	if cov == nil {
		return nil, fmt.Errorf("%w: position was not estimated", ErrInvalidConfig)
	}
	return NewAccuracy(cov, confidence)
}

// ChiSqTest checks the chi-square of the fit against the critical value at
// significance level alpha. Only meaningful when readings carry standard deviations.
// It passes when there are no redundant readings.
func (r *FitResult) ChiSqTest(alpha float64) bool {
	dof := r.Dof()
	if dof <= 0 {
		return true
	}
	lim := ChiSqr(dof, alpha)
	PrintD(1, "chi-square test: %.3f <= %.3f (dof=%d)", r.ChiSq, lim, dof)
	return r.ChiSq <= lim
}

// clone returns a deep copy, so that callers cannot alter the stored result
func (r *FitResult) clone() *FitResult {
	c := *r
	if r.Covariance != nil {
		c.Covariance = mat.NewSymDense(r.Covariance.SymmetricDim(), nil)
		c.Covariance.CopySym(r.Covariance)
	}
	return &c
}
