// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.2
//

// Log-distance propagation model.
//
// A reader at distance d from an emitter transmitting Pte [mW] on frequency f
// receives
//
//	Pr = Pte * k1^n / d^n,  k1 = C / (4 PI f)
//
// where n is the path loss exponent (2 in free space). In dBm:
//
//	Pr[dBm] = Pte[dBm] + 10 n log10(k1 / d)
//
// The fit is performed in dBm, so derivatives are those of the dBm prediction.

package gorssi

import (
	"fmt"
	"math"
)

// freqConstant returns k1 = C / (4 PI f)
func freqConstant(freq float64) (float64, error) {
	if !(freq > 0) {
		return 0, fmt.Errorf("%w: frequency must be positive, got %v", ErrInvalidConfig, freq)
	}
	return C / (4 * PI * freq), nil
}

// emitterDistance returns the distance between emitter and reader coordinates,
// failing when the reader sits on the emitter
func emitterDistance(emitter, reader []float64) (float64, error) {
	if len(emitter) != len(reader) {
		return 0, fmt.Errorf("%w: emitter has %d dimensions, reader %d", ErrInvalidConfig, len(emitter), len(reader))
	}
	d := EucDist(emitter, reader)
	if d < MIN_DISTANCE {
		return 0, fmt.Errorf("%w: reader at %v coincides with emitter", ErrSingular, reader)
	}
	return d, nil
}

// PredictRssiDbm returns the RSSI [dBm] a reader at reader would observe from an
// emitter at emitter transmitting powerDbm on freq [Hz] with path loss exponent n.
func PredictRssiDbm(emitter, reader []float64, powerDbm, n, freq float64) (float64, error) {
	k1, err := freqConstant(freq)
	if err != nil {
		return 0, err
	}
	d, err := emitterDistance(emitter, reader)
	if err != nil {
		return 0, err
	}
	return powerDbm + 10*n*math.Log10(k1/d), nil
}

// PredictRssi is PredictRssiDbm in linear units. power and the result are in mW.
func PredictRssi(emitter, reader []float64, power, n, freq float64) (float64, error) {
	k1, err := freqConstant(freq)
	if err != nil {
		return 0, err
	}
	d, err := emitterDistance(emitter, reader)
	if err != nil {
		return 0, err
	}
	return power * math.Pow(k1/d, n), nil
}

// RssiDerivatives holds the partial derivatives of the predicted RSSI [dBm]
type RssiDerivatives struct {
	Position []float64 // With respect to each emitter coordinate [dB/m]
	Power    float64   // With respect to the transmitted power in dBm (always 1)
	PathLoss float64   // With respect to the path loss exponent [dB]
}

// PredictRssiDerivatives evaluates the prediction of PredictRssiDbm along with its
// partial derivatives with respect to the emitter parameters.
func PredictRssiDerivatives(emitter, reader []float64, powerDbm, n, freq float64) (float64, *RssiDerivatives, error) {
	k1, err := freqConstant(freq)
	if err != nil {
		return 0, nil, err
	}
	d, err := emitterDistance(emitter, reader)
	if err != nil {
		return 0, nil, err
	}

	lg := 10 * math.Log10(k1/d)
	der := &RssiDerivatives{
		Position: make([]float64, len(emitter)),
		Power:    1,
		PathLoss: lg,
	}

	// d(-10 n log10 d)/dx_j = -10 n / ln10 * (x_j - p_j) / d^2
	f := -10 * n / (LN10 * d * d)
	for j := range emitter {
		der.Position[j] = f * (emitter[j] - reader[j])
	}
	return powerDbm + n*lg, der, nil
}
