// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.2
//

// Estimation of the position, transmitted power and path loss exponent of a
// radio source from RSSI readings taken at known positions.

package gorssi

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Estimator fits the log-distance propagation model to a set of RSSI readings
// of a single radio source.
//
// Any subset of {position, transmitted power, path loss exponent} can be
// estimated; the others keep their initial values. By default position and
// transmitted power are estimated and the path loss exponent is fixed to 2.
//
// The lock flag only guards against Estimate being re-entered (from a listener
// or another goroutine) and against configuration changes while it runs. It
// does not protect the configuration from unsynchronized concurrent setters.
type Estimator struct {
	dims     int
	readings []Reading

	positionEnabled bool
	powerEnabled    bool
	pathLossEnabled bool

	initialPosition Point
	initialPowerDbm *float64
	initialPathLoss float64

	listener Listener
	lmOpt    *LMOpt

	locked atomic.Bool
	result *FitResult
}

// NewEstimator creates an estimator for 2D or 3D positions without readings
func NewEstimator(dims int) (*Estimator, error) {
	if dims != 2 && dims != 3 {
		return nil, fmt.Errorf("%w: dimensions must be 2 or 3, got %d", ErrInvalidConfig, dims)
	}
	return &Estimator{
		dims:            dims,
		positionEnabled: true,
		powerEnabled:    true,
		pathLossEnabled: false,
		initialPathLoss: DEFAULT_PATH_LOSS_EXPONENT,
		lmOpt:           NewLMOpt(),
	}, nil
}

// NewEstimatorWithReadings creates an estimator and sets its readings
func NewEstimatorWithReadings(dims int, readings []Reading) (*Estimator, error) {
	e, err := NewEstimator(dims)
	if err != nil {
		return nil, err
	}
	if err := e.SetReadings(readings); err != nil {
		return nil, err
	}
	return e, nil
}

// ------------------------------------
// Configuration
// ------------------------------------

func (e *Estimator) Dims() int {
	return e.dims
}

func (e *Estimator) Readings() []Reading {
	return e.readings
}

// SetReadings replaces the readings. They must be at least MinReadings for the
// currently enabled unknowns, and located in the estimator dimensions.
func (e *Estimator) SetReadings(readings []Reading) error {
	if e.locked.Load() {
		return ErrLocked
	}
	if readings == nil {
		return fmt.Errorf("%w: nil readings", ErrInvalidConfig)
	}
	if len(readings) < e.MinReadings() {
		return fmt.Errorf("%w: not enough readings: %d < %d", ErrInvalidConfig, len(readings), e.MinReadings())
	}
	for i, r := range readings {
		if err := validateReading(r, e.dims); err != nil {
			return fmt.Errorf("reading %d: %w", i, err)
		}
	}
	e.readings = readings
	return nil
}

func (e *Estimator) PositionEstimationEnabled() bool {
	return e.positionEnabled
}

func (e *Estimator) SetPositionEstimationEnabled(enabled bool) error {
	if e.locked.Load() {
		return ErrLocked
	}
	e.positionEnabled = enabled
	return nil
}

func (e *Estimator) TransmittedPowerEstimationEnabled() bool {
	return e.powerEnabled
}

func (e *Estimator) SetTransmittedPowerEstimationEnabled(enabled bool) error {
	if e.locked.Load() {
		return ErrLocked
	}
	e.powerEnabled = enabled
	return nil
}

func (e *Estimator) PathLossEstimationEnabled() bool {
	return e.pathLossEnabled
}

func (e *Estimator) SetPathLossEstimationEnabled(enabled bool) error {
	if e.locked.Load() {
		return ErrLocked
	}
	e.pathLossEnabled = enabled
	return nil
}

// InitialPosition returns the initial emitter position, or nil if the
// centroid of the readers is used
func (e *Estimator) InitialPosition() Point {
	return e.initialPosition
}

// SetInitialPosition sets the initial emitter position. It is also the position
// used when position estimation is disabled. nil restores the default.
func (e *Estimator) SetInitialPosition(p Point) error {
	if e.locked.Load() {
		return ErrLocked
	}
	if p != nil && p.Dims() != e.dims {
		return fmt.Errorf("%w: initial position has %d dimensions, estimator has %d", ErrInvalidConfig, p.Dims(), e.dims)
	}
	e.initialPosition = p
	return nil
}

// InitialTransmittedPowerDbm returns the initial transmitted power [dBm], or nil
// if none is set. Without one, an estimated power starts from the least squares
// power at the initial position, or DEFAULT_POWER_DBM if that cannot be computed.
func (e *Estimator) InitialTransmittedPowerDbm() *float64 {
	if e.initialPowerDbm == nil {
		return nil
	}
	v := *e.initialPowerDbm
	return &v
}

// SetInitialTransmittedPowerDbm sets the initial transmitted power [dBm]. nil restores the default.
func (e *Estimator) SetInitialTransmittedPowerDbm(dbm *float64) error {
	if e.locked.Load() {
		return ErrLocked
	}
	if dbm == nil {
		e.initialPowerDbm = nil
		return nil
	}
	if math.IsNaN(*dbm) || math.IsInf(*dbm, 0) {
		return fmt.Errorf("%w: non finite initial transmitted power %v", ErrInvalidConfig, *dbm)
	}
	v := *dbm
	e.initialPowerDbm = &v
	return nil
}

// InitialTransmittedPower returns the initial transmitted power [mW], or nil
func (e *Estimator) InitialTransmittedPower() *float64 {
	if e.initialPowerDbm == nil {
		return nil
	}
	v := DbmToMilliwatt(*e.initialPowerDbm)
	return &v
}

// SetInitialTransmittedPower sets the initial transmitted power [mW], which must be positive.
// nil restores the default.
func (e *Estimator) SetInitialTransmittedPower(mw *float64) error {
	if e.locked.Load() {
		return ErrLocked
	}
	if mw == nil {
		e.initialPowerDbm = nil
		return nil
	}
	if !(*mw > 0) || math.IsInf(*mw, 0) {
		return fmt.Errorf("%w: initial transmitted power must be positive, got %v", ErrInvalidConfig, *mw)
	}
	v := MilliwattToDbm(*mw)
	e.initialPowerDbm = &v
	return nil
}

func (e *Estimator) InitialPathLossExponent() float64 {
	return e.initialPathLoss
}

// SetInitialPathLossExponent sets the initial path loss exponent, which must be positive
func (e *Estimator) SetInitialPathLossExponent(n float64) error {
	if e.locked.Load() {
		return ErrLocked
	}
	if !(n > 0) || math.IsInf(n, 0) {
		return fmt.Errorf("%w: path loss exponent must be positive, got %v", ErrInvalidConfig, n)
	}
	e.initialPathLoss = n
	return nil
}

func (e *Estimator) Listener() Listener {
	return e.listener
}

func (e *Estimator) SetListener(l Listener) error {
	if e.locked.Load() {
		return ErrLocked
	}
	e.listener = l
	return nil
}

// LMOpt returns a copy of the solver options
func (e *Estimator) LMOpt() LMOpt {
	return *e.lmOpt
}

// SetLMOpt sets the solver options. nil restores the defaults.
func (e *Estimator) SetLMOpt(opt *LMOpt) error {
	if e.locked.Load() {
		return ErrLocked
	}
	if opt == nil {
		e.lmOpt = NewLMOpt()
		return nil
	}
	if err := opt.validate(); err != nil {
		return err
	}
	o := *opt
	e.lmOpt = &o
	return nil
}

// ------------------------------------
// State
// ------------------------------------

// layout returns the unknowns selected by the current flags
func (e *Estimator) layout() paramLayout {
	return paramLayout{
		dims:     e.dims,
		position: e.positionEnabled,
		power:    e.powerEnabled,
		pathLoss: e.pathLossEnabled,
	}
}

// MinReadings returns the number of readings required for the enabled unknowns (unknowns + 1)
func (e *Estimator) MinReadings() int {
	return e.layout().NumUnknowns() + 1
}

// IsReady checks if there are enough readings to estimate the enabled unknowns
func (e *Estimator) IsReady() bool {
	return e.readings != nil && len(e.readings) >= e.MinReadings()
}

// IsLocked checks if an estimation is running
func (e *Estimator) IsLocked() bool {
	return e.locked.Load()
}

// ------------------------------------
// Estimation
// ------------------------------------

// Estimate fits the enabled unknowns to the readings.
//
// Returns an error wrapping:
//   - ErrNotReady: not enough readings
//   - ErrLocked: an estimation is already running
//   - ErrInvalidConfig: no unknown enabled, or position fixed without an initial position
//   - ErrSingular: a reader on the emitter or degenerate reader geometry
//   - ErrNotConverged: the solver ran out of iterations
//
// On failure the previous result is kept. The listener start callback is
// invoked once the configuration is checked; the end callback only on success.
//
// The fit is local. With an emitter far outside the area covered by the readers
// the default centroid seed can end in a local minimum, which is reported as a
// success with a large chi-square. SetInitialPosition gives a better start.
func (e *Estimator) Estimate() error {
	if !e.IsReady() {
		return fmt.Errorf("%w: readings: %d, required: %d", ErrNotReady, len(e.readings), e.MinReadings())
	}
	if !e.locked.CompareAndSwap(false, true) {
		return ErrLocked
	}

	rslt, err := e.estimateLocked()
	if err != nil {
		return fmt.Errorf("estimation failed: %w", err)
	}

	e.result = rslt
	if e.listener != nil {
		e.listener.OnEstimateEnd(e)
	}
	return nil
}

// estimateLocked runs the fit and releases the lock when done
func (e *Estimator) estimateLocked() (*FitResult, error) {
	defer e.locked.Store(false)

	layout := e.layout()
	if layout.NumUnknowns() == 0 {
		return nil, fmt.Errorf("%w: no unknowns enabled", ErrInvalidConfig)
	}
	guess, err := e.initialGuess(layout)
	if err != nil {
		return nil, err
	}

	log := Log.WithFields(logrus.Fields{
		"dims":     e.dims,
		"readings": len(e.readings),
		"unknowns": layout.NumUnknowns(),
	})
	log.Debugf("estimation started. init pos=%v, power=%.3f dBm, n=%.3f", guess.position, guess.powerDbm, guess.pathLoss)

	if e.listener != nil {
		e.listener.OnEstimateStart(e)
	}

	rslt, err := fitRssi(layout, guess, e.readings, e.lmOpt)
	if err != nil {
		log.WithError(err).Debug("estimation failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"chisq": rslt.ChiSq,
		"iter":  rslt.Iterations,
	}).Debugf("estimation finished. pos=%v, power=%.3f dBm, n=%.3f", rslt.Position, rslt.TransmittedPowerDbm, rslt.PathLossExponent)

	// Readings without standard deviation are tested as if it were 1 dB
	if !rslt.ChiSqTest(0.01) {
		log.WithField("chisq_dof", rslt.ChiSq/float64(rslt.Dof())).
			Debug("poor fit, the solver may have stopped at a local minimum. Try another initial position")
	}
	return rslt, nil
}

// initialGuess resolves the initial value of every parameter
func (e *Estimator) initialGuess(layout paramLayout) (*paramGuess, error) {
	g := &paramGuess{
		powerDbm: DEFAULT_POWER_DBM,
		pathLoss: e.initialPathLoss,
	}
	if e.initialPowerDbm != nil {
		g.powerDbm = *e.initialPowerDbm
	}

	switch {
	case e.initialPosition != nil:
		g.position = e.initialPosition.Coords()
	case layout.position:
		pos, err := seedPosition(e.readings)
		if err != nil {
			return nil, err
		}
		g.position = pos
	default:
		return nil, fmt.Errorf("%w: an initial position is required when position estimation is disabled", ErrInvalidConfig)
	}

	if layout.power && e.initialPowerDbm == nil {
		if p, err := seedPower(e.readings, g.position, g.pathLoss); err == nil {
			g.powerDbm = p
		} else {
			PrintD(2, "power seed failed, using %.1f dBm: %v", g.powerDbm, err)
		}
	}
	return g, nil
}

// ------------------------------------
// Results
// ------------------------------------

// Result returns a copy of the last fit, or nil before the first successful estimation
func (e *Estimator) Result() *FitResult {
	if e.result == nil {
		return nil
	}
	return e.result.clone()
}

// EstimatedPosition returns the emitter position, or nil before the first estimation
func (e *Estimator) EstimatedPosition() Point {
	if e.result == nil {
		return nil
	}
	return e.result.Position
}

// EstimatedTransmittedPowerDbm returns the transmitted power [dBm] (0 before the first estimation)
func (e *Estimator) EstimatedTransmittedPowerDbm() float64 {
	if e.result == nil {
		return DEFAULT_POWER_DBM
	}
	return e.result.TransmittedPowerDbm
}

// EstimatedTransmittedPower returns the transmitted power [mW] (1 before the first estimation)
func (e *Estimator) EstimatedTransmittedPower() float64 {
	return DbmToMilliwatt(e.EstimatedTransmittedPowerDbm())
}

// EstimatedPathLossExponent returns the path loss exponent (2 before the first estimation)
func (e *Estimator) EstimatedPathLossExponent() float64 {
	if e.result == nil {
		return DEFAULT_PATH_LOSS_EXPONENT
	}
	return e.result.PathLossExponent
}

// EstimatedCovariance returns a copy of the covariance of the estimated unknowns, or nil
func (e *Estimator) EstimatedCovariance() *mat.SymDense {
	if e.result == nil || e.result.Covariance == nil {
		return nil
	}
	return e.result.clone().Covariance
}

// EstimatedPositionCovariance returns the position covariance [m^2], or nil
func (e *Estimator) EstimatedPositionCovariance() *mat.SymDense {
	if e.result == nil {
		return nil
	}
	return e.result.PositionCovariance()
}

// EstimatedTransmittedPowerVariance returns the transmitted power variance [dB^2]
func (e *Estimator) EstimatedTransmittedPowerVariance() (float64, bool) {
	if e.result == nil {
		return 0, false
	}
	return e.result.TransmittedPowerVariance()
}

// EstimatedPathLossExponentVariance returns the path loss exponent variance
func (e *Estimator) EstimatedPathLossExponentVariance() (float64, bool) {
	if e.result == nil {
		return 0, false
	}
	return e.result.PathLossExponentVariance()
}

// ChiSq returns the chi-square of the last fit (0 before the first estimation)
func (e *Estimator) ChiSq() float64 {
	if e.result == nil {
		return 0
	}
	return e.result.ChiSq
}
