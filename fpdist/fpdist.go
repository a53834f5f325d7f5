// Package fpdist implements the fingerprint distance metrics of spec §4.8,
// used both by receiver-side weighted k-NN matching (package receiver) and
// by any external kNN database matcher.
package fpdist

import (
	"math"

	"indoor-locator/radioio"
)

// Euclidean returns the Euclidean RSSI distance between two fingerprints
// over their overlapping sources: d² = Σ (rssiA(s) − rssiB(s))². Returns
// +Inf when the fingerprints share no source.
func Euclidean(a, b radioio.Fingerprint) float64 {
	overlap := overlapSources(a, b)
	if len(overlap) == 0 {
		return math.Inf(1)
	}
	sumSq := 0.0
	for _, src := range overlap {
		ra, _ := a.RSSI(src)
		rb, _ := b.RSSI(src)
		diff := ra - rb
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq)
}

// MeanRemovedEuclidean returns the mean-removed Euclidean RSSI distance
// (spec §4.8): subtracting each fingerprint's own mean over the overlap
// before differencing removes a constant hardware-gain bias between the
// two receivers. Returns +Inf when the fingerprints share no source.
func MeanRemovedEuclidean(a, b radioio.Fingerprint) float64 {
	overlap := overlapSources(a, b)
	if len(overlap) == 0 {
		return math.Inf(1)
	}

	var sumA, sumB float64
	valsA := make([]float64, len(overlap))
	valsB := make([]float64, len(overlap))
	for i, src := range overlap {
		ra, _ := a.RSSI(src)
		rb, _ := b.RSSI(src)
		valsA[i], valsB[i] = ra, rb
		sumA += ra
		sumB += rb
	}
	meanA := sumA / float64(len(overlap))
	meanB := sumB / float64(len(overlap))

	sumSq := 0.0
	for i := range overlap {
		diff := (valsA[i] - meanA) - (valsB[i] - meanB)
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq)
}

// overlapSources returns the sources present (with an RSSI reading) in
// both fingerprints. Order does not matter: every use sums over the set.
func overlapSources(a, b radioio.Fingerprint) []radioio.RadioSource {
	var out []radioio.RadioSource
	for _, src := range a.Sources() {
		if _, ok := a.RSSI(src); !ok {
			continue
		}
		if _, ok := b.RSSI(src); !ok {
			continue
		}
		out = append(out, src)
	}
	return out
}
