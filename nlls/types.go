// Package nlls implements the nonlinear least-squares inner estimator
// (spec §4.3): a Levenberg–Marquardt fit of (position, Pte, n) against a
// set of readings, producing an estimate plus covariance.
package nlls

import (
	"indoor-locator/propagation"
	"indoor-locator/radioio"
)

// Sample pairs one Reading with the known position of its counterpart
// (the receiver position, when fitting a source; or the source position,
// when fitting a receiver). The subject position being solved for is never
// part of Sample — it is the estimator's output.
type Sample struct {
	Other           radioio.Point
	OtherCovariance *radioio.SymMatrix
	Reading         radioio.Reading
}

// Options configures which parameters of θ = (position, Pte_dBm, n) are
// estimated versus held fixed at their initial value, per spec §4.3.
type Options struct {
	Dim int // 2 or 3

	PositionEnabled bool
	PteEnabled      bool
	NEnabled        bool

	InitialPosition *radioio.Point
	InitialPteDbm   *float64
	InitialN        *float64 // defaults to propagation.DefaultPathLossExponent

	UseReadingPositionCovariances bool
	ChiSquaredThreshold           float64 // 0 disables residual rejection in refinement

	MaxIterations int // default 100 (spec's hard cap)
}

// DefaultOptions mirrors the teacher's DefaultConfig() idiom: sensible
// defaults the caller can override selectively.
func DefaultOptions(dim int) Options {
	return Options{
		Dim:                 dim,
		PositionEnabled:     true,
		MaxIterations:       100,
		ChiSquaredThreshold: 0,
	}
}

func (o Options) initialN() float64 {
	if o.InitialN != nil {
		return *o.InitialN
	}
	return propagation.DefaultPathLossExponent
}

func (o Options) initialPteDbm() float64 {
	if o.InitialPteDbm != nil {
		return *o.InitialPteDbm
	}
	return 0.0
}

// dimEstimated returns D·[position] + [Pte] + [n].
func (o Options) dimEstimated() int {
	n := 0
	if o.PositionEnabled {
		n += o.Dim
	}
	if o.PteEnabled {
		n++
	}
	if o.NEnabled {
		n++
	}
	return n
}

// MinReadings is dim_estimated + 1, per spec §4.3/§8 invariant 1.
func (o Options) MinReadings() int {
	return o.dimEstimated() + 1
}

// Result is the estimator's output.
type Result struct {
	Position   radioio.Point
	PteDbm     float64
	N          float64
	Covariance *radioio.SymMatrix // full enabled-parameter covariance
	PositionCovariance *radioio.SymMatrix // submatrix, only when position enabled
	ReducedChiSquare   float64
	Iterations         int
}
