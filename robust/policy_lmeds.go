package robust

import (
	"math"
	"sort"
)

// lmedsPolicy scores a candidate by the median squared residual (spec
// §4.6, LMedS) and has no natural confidence-driven sample bound, so it
// runs a fixed iteration count and relies on StopEarly once the median
// drops below the configured threshold.
type lmedsPolicy struct{}

func (lmedsPolicy) Method() Method             { return LMedS }
func (lmedsPolicy) RequiresQualityScores() bool { return false }

func (lmedsPolicy) Score(residuals []float64, threshold float64) float64 {
	return medianSquared(residuals)
}

func (lmedsPolicy) Better(a, b float64) bool { return a < b }

// InlierMask applies the standard LMedS robust scale estimate
// σ̂ = 1.4826 * (1 + 5/(n-p)) * sqrt(median), with a fixed 2.5σ̂ cutoff.
// The simplified constant form (no explicit p) is used since the driver
// does not track parameter count here; n-p is approximated by n-1.
func (lmedsPolicy) InlierMask(residuals []float64, threshold, score float64) []bool {
	n := len(residuals)
	sigmaHat := 1.4826 * (1 + 5.0/math.Max(float64(n-1), 1)) * math.Sqrt(math.Max(score, 0))
	if sigmaHat < 1e-12 {
		sigmaHat = 1e-12
	}
	cutoff := 2.5 * sigmaHat
	mask := make([]bool, n)
	for i, r := range residuals {
		mask[i] = math.Abs(r) < cutoff
	}
	return mask
}

func (lmedsPolicy) RequiredIterations(epsilon float64, k int, confidence float64) int {
	return math.MaxInt32
}

func (lmedsPolicy) StopEarly(bestScore, stopThreshold float64) bool {
	return bestScore < stopThreshold
}

func medianSquared(residuals []float64) float64 {
	if len(residuals) == 0 {
		return math.Inf(1)
	}
	sq := make([]float64, len(residuals))
	for i, r := range residuals {
		sq[i] = r * r
	}
	sort.Float64s(sq)
	mid := len(sq) / 2
	if len(sq)%2 == 1 {
		return sq[mid]
	}
	return (sq[mid-1] + sq[mid]) / 2
}
