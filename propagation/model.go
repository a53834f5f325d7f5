// Package propagation implements the log-distance path-loss radio
// propagation model (spec §4.1): the forward Pr(d, Pte, n) model, its
// inverse, and its Jacobian with respect to position, transmitted power
// and path-loss exponent.
package propagation

import (
	"math"

	"indoor-locator/locatorerr"
)

// SpeedOfLight is c in m/s.
const SpeedOfLight = 299792458.0

// DefaultPathLossExponent is free-space n = 2.0.
const DefaultPathLossExponent = 2.0

// MinDistance lower-bounds distances to avoid singularities (ε_dist).
const MinDistance = 1e-7

// Wavelength returns λ = c / f for a carrier frequency in Hz.
func Wavelength(frequencyHz float64) (float64, error) {
	if frequencyHz <= 0 {
		return 0, locatorerr.Newf(locatorerr.InvalidArgument, "propagation.Wavelength", "frequency must be > 0, got %v", frequencyHz)
	}
	return SpeedOfLight / frequencyHz, nil
}

// FrequencyConstantDb returns K = 10*log10((λ/4π)²), the frequency-dependent
// offset of the dBm form of the model.
func FrequencyConstantDb(frequencyHz float64) (float64, error) {
	lambda, err := Wavelength(frequencyHz)
	if err != nil {
		return 0, err
	}
	ratio := lambda / (4 * math.Pi)
	return 10 * math.Log10(ratio*ratio), nil
}

func clampDistance(d float64) float64 {
	if d < MinDistance {
		return MinDistance
	}
	return d
}

// ForwardDbm computes Pr_dBm = Pte_dBm + K - 10*n*log10(d) for distance d > 0.
func ForwardDbm(distance, pteDbm, n, frequencyHz float64) (float64, error) {
	k, err := FrequencyConstantDb(frequencyHz)
	if err != nil {
		return 0, err
	}
	d := clampDistance(distance)
	return pteDbm + k - 10*n*math.Log10(d), nil
}

// InverseDistance computes d = 10^((Pte_dBm + K - Pr_dBm) / (10n)) from a
// measured Pr_dBm.
func InverseDistance(prDbm, pteDbm, n, frequencyHz float64) (float64, error) {
	if n == 0 {
		return 0, locatorerr.Newf(locatorerr.InvalidArgument, "propagation.InverseDistance", "path-loss exponent must be non-zero")
	}
	k, err := FrequencyConstantDb(frequencyHz)
	if err != nil {
		return 0, err
	}
	exponent := (pteDbm + k - prDbm) / (10 * n)
	return math.Pow(10, exponent), nil
}

// Jacobian holds ∂Pr_dBm/∂θ for whichever subset of θ = (position, Pte, n)
// the caller requests; fields are only meaningful when their corresponding
// "enabled" flag was set on the call that produced the Jacobian.
type Jacobian struct {
	DPosition []float64 // ∂/∂p_i, len == position dimension
	DPte      float64   // ∂/∂Pte_dBm, always 1 when requested
	DN        float64   // ∂/∂n
}

// ComputeJacobian returns the partials of Pr_dBm at receiverOrSource
// position p relative to source position s, at distance d = |p - s|,
// for the requested parameter subset.
func ComputeJacobian(p, s []float64, n float64, wantPosition, wantPte, wantN bool) Jacobian {
	dim := len(p)
	diff := make([]float64, dim)
	sumSq := 0.0
	for i := 0; i < dim; i++ {
		diff[i] = p[i] - s[i]
		sumSq += diff[i] * diff[i]
	}
	d := clampDistance(math.Sqrt(sumSq))

	var jac Jacobian
	if wantPosition {
		jac.DPosition = make([]float64, dim)
		coeff := -(10 * n) / math.Ln10 / (d * d)
		for i := 0; i < dim; i++ {
			jac.DPosition[i] = coeff * diff[i]
		}
	}
	if wantPte {
		jac.DPte = 1.0
	}
	if wantN {
		jac.DN = -10 * math.Log10(d)
	}
	return jac
}
