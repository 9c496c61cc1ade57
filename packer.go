// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.2
//

package gorssi

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// paramLayout selects the unknowns of a fit and fixes their place in the parameter vector.
//
// Order: emitter position (dims elements), transmitted power [dBm], path loss exponent.
// Disabled unknowns are left out and the following ones move up.
type paramLayout struct {
	dims     int
	position bool
	power    bool
	pathLoss bool
}

// NumUnknowns returns the length of the parameter vector
func (l paramLayout) NumUnknowns() int {
	nx := 0
	if l.position {
		nx += l.dims
	}
	if l.power {
		nx++
	}
	if l.pathLoss {
		nx++
	}
	return nx
}

// Index of the first position element, or -1
func (l paramLayout) positionIndex() int {
	if !l.position {
		return -1
	}
	return 0
}

// Index of the transmitted power, or -1
func (l paramLayout) powerIndex() int {
	if !l.power {
		return -1
	}
	if l.position {
		return l.dims
	}
	return 0
}

// Index of the path loss exponent, or -1
func (l paramLayout) pathLossIndex() int {
	if !l.pathLoss {
		return -1
	}
	return l.NumUnknowns() - 1
}

// paramGuess holds a value for every physical parameter. Unknowns that are not
// estimated keep these values during the fit.
type paramGuess struct {
	position []float64
	powerDbm float64
	pathLoss float64
}

// pack builds the initial parameter vector
func (l paramLayout) pack(g *paramGuess) []float64 {
	x := make([]float64, 0, l.NumUnknowns())
	if l.position {
		x = append(x, g.position...)
	}
	if l.power {
		x = append(x, g.powerDbm)
	}
	if l.pathLoss {
		x = append(x, g.pathLoss)
	}
	return x
}

// params merges the parameter vector with the fixed values of g
func (l paramLayout) params(x []float64, g *paramGuess) (pos []float64, powerDbm, n float64) {
	pos, powerDbm, n = g.position, g.powerDbm, g.pathLoss
	if i := l.positionIndex(); i >= 0 {
		pos = x[i : i+l.dims]
	}
	if i := l.powerIndex(); i >= 0 {
		powerDbm = x[i]
	}
	if i := l.pathLossIndex(); i >= 0 {
		n = x[i]
	}
	return
}

// jacobianRow copies the derivatives of the enabled unknowns into row
func (l paramLayout) jacobianRow(der *RssiDerivatives, row []float64) {
	if i := l.positionIndex(); i >= 0 {
		copy(row[i:i+l.dims], der.Position)
	}
	if i := l.powerIndex(); i >= 0 {
		row[i] = der.Power
	}
	if i := l.pathLossIndex(); i >= 0 {
		row[i] = der.PathLoss
	}
}

// unpack converts the fitted vector into a result. cov is the covariance of x.
func (l paramLayout) unpack(x []float64, cov *mat.SymDense, g *paramGuess) (*FitResult, error) {
	if len(x) != l.NumUnknowns() {
		return nil, fmt.Errorf("invalid parameter vector length. %d != %d", len(x), l.NumUnknowns())
	}
	if cov != nil {
		if n := cov.SymmetricDim(); n != len(x) {
			return nil, fmt.Errorf("invalid covariance size. %d x %d for %d unknowns", n, n, len(x))
		}
	}
	pos, powerDbm, n := l.params(x, g)
	p, err := NewPoint(slices.Clone(pos)...)
	if err != nil {
		return nil, err
	}
	return &FitResult{
		Position:            p,
		TransmittedPowerDbm: powerDbm,
		PathLossExponent:    n,
		Covariance:          cov,
		layout:              l,
	}, nil
}

// subCovariance copies the n x n diagonal block of cov starting at i
func subCovariance(cov mat.Symmetric, i, n int) *mat.SymDense {
	sub := mat.NewSymDense(n, nil)
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			sub.SetSym(r, c, cov.At(i+r, i+c))
		}
	}
	return sub
}

// seedPosition returns the default initial emitter position: the centroid of the
// reader positions. When the centroid falls on a reader while the readers are not
// all at the same place, it is moved off that reader along the first axis.
func seedPosition(readings []Reading) ([]float64, error) {
	pts := make([]Point, len(readings))
	for i, r := range readings {
		pts[i] = r.Position()
	}
	c, err := Centroid(pts)
	if err != nil {
		return nil, err
	}
	seed := c.Coords()

	spread := 0.0
	onReader := false
	for _, p := range pts {
		d := EucDist(seed, p.Coords())
		if d > spread {
			spread = d
		}
		if d < MIN_DISTANCE {
			onReader = true
		}
	}
	if onReader && spread > 0 {
		seed[0] += 1e-3 * spread
		PrintD(2, "centroid on a reader, seed moved to %v", seed)
	}
	return seed, nil
}

// seedPower returns the weighted least squares transmitted power [dBm] for an
// emitter at pos with path loss exponent n. With pos and n fixed the model is
// linear in the power, so a single SolveLS step from zero gives the solution.
func seedPower(readings []Reading, pos []float64, n float64) (float64, error) {
	G := mat.NewDense(len(readings), 1, nil)
	dr := mat.NewVecDense(len(readings), nil)
	w := make([]float64, len(readings))
	for i, r := range readings {
		// Received power of a 0 dBm emitter
		pred, err := PredictRssiDbm(pos, r.Position().Coords(), 0, n, r.Source().Frequency())
		if err != nil {
			return 0, err
		}
		G.Set(i, 0, 1)
		dr.SetVec(i, r.RssiDbm()-pred)
		w[i] = readingWeight(r)
	}
	dx, _, err := SolveLS(G, dr, w)
	if err != nil {
		return 0, err
	}
	return dx.AtVec(0), nil
}
