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

// rssiProblem is the least squares problem of fitting the log-distance model to RSSI readings
type rssiProblem struct {
	layout   paramLayout
	guess    *paramGuess
	readings []Reading
}

func (p *rssiProblem) NumObs() int    { return len(p.readings) }
func (p *rssiProblem) NumParams() int { return p.layout.NumUnknowns() }

func (p *rssiProblem) Eval(i int, x []float64, jac []float64) (float64, float64, error) {
	r := p.readings[i]
	pos, powerDbm, n := p.layout.params(x, p.guess)
	pred, der, err := PredictRssiDerivatives(pos, r.Position().Coords(), powerDbm, n, r.Source().Frequency())
	if err != nil {
		return 0, 0, err
	}
	p.layout.jacobianRow(der, jac)
	return r.RssiDbm() - pred, readingWeight(r), nil
}

// hasStdDevs checks if any reading carries a standard deviation
func hasStdDevs(readings []Reading) bool {
	for _, r := range readings {
		if _, ok := r.RssiStdDev(); ok {
			return true
		}
	}
	return false
}

// fitRssi fits the enabled unknowns of layout to the readings, starting from guess
//
// When no reading has a standard deviation the weights carry no scale, and the
// covariance is scaled by the residual variance chi2 / (N - U).
func fitRssi(layout paramLayout, guess *paramGuess, readings []Reading, opt *LMOpt) (*FitResult, error) {
	prob := &rssiProblem{layout: layout, guess: guess, readings: readings}
	x0 := layout.pack(guess)

	sol, err := SolveLM(prob, x0, opt)
	if err != nil {
		return nil, err
	}

	cov := sol.Cov
	if dof := len(readings) - layout.NumUnknowns(); !hasStdDevs(readings) && dof > 0 {
		var scaled mat.SymDense
		scaled.ScaleSym(sol.ChiSq/float64(dof), cov)
		cov = &scaled
	}

	rslt, err := layout.unpack(sol.X, cov, guess)
	if err != nil {
		return nil, fmt.Errorf("unpack() failed, err=%w", err)
	}
	rslt.ChiSq = sol.ChiSq
	rslt.NumReadings = len(readings)
	rslt.Iterations = sol.Iterations
	return rslt, nil
}
