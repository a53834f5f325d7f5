package nlls

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"indoor-locator/internal/estimatorstate"
	"indoor-locator/locatorerr"
	"indoor-locator/propagation"
	"indoor-locator/radioio"
)

// Estimator is the public per-variant surface of spec §6: constructors take
// Options, mutators are rejected with Locked while running, Estimate runs
// to completion synchronously.
type Estimator struct {
	estimatorstate.Machine

	opts    Options
	samples []Sample
	result  *Result
}

func New(opts Options) (*Estimator, error) {
	if opts.Dim != 2 && opts.Dim != 3 {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, "nlls.New", "Dim must be 2 or 3, got %d", opts.Dim)
	}
	enabledCount := 0
	for _, b := range []bool{opts.PositionEnabled, opts.PteEnabled, opts.NEnabled} {
		if b {
			enabledCount++
		}
	}
	if enabledCount == 0 {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, "nlls.New", "at least one of position/Pte/n estimation must be enabled")
	}
	if !opts.PositionEnabled && opts.InitialPosition == nil {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, "nlls.New", "InitialPosition is required when position estimation is disabled")
	}
	if opts.InitialPosition != nil && opts.InitialPosition.Dim() != opts.Dim {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, "nlls.New", "InitialPosition dimension %d does not match Dim %d", opts.InitialPosition.Dim(), opts.Dim)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 100
	}
	e := &Estimator{opts: opts}
	e.MarkConfigured()
	return e, nil
}

// SetSamples replaces the readings (and their counterpart positions) the
// estimator fits against.
func (e *Estimator) SetSamples(samples []Sample) error {
	if err := e.GuardMutation("nlls.Estimator.SetSamples"); err != nil {
		return err
	}
	cp := make([]Sample, len(samples))
	copy(cp, samples)
	e.samples = cp
	e.refreshReadiness()
	return nil
}

func (e *Estimator) refreshReadiness() {
	if len(e.samples) >= e.opts.MinReadings() {
		e.MarkReady()
	}
}

func (e *Estimator) IsReady() bool {
	return len(e.samples) >= e.opts.MinReadings()
}

// Result returns the last successful estimate, if any.
func (e *Estimator) Result() *Result {
	return e.result
}

// Estimate runs Levenberg–Marquardt to convergence or failure.
func (e *Estimator) Estimate(ctx context.Context) (*Result, error) {
	const op = "nlls.Estimator.Estimate"
	if err := e.BeginRun(op); err != nil {
		return nil, err
	}
	ok := false
	defer func() { e.Finish(ok) }()

	if !e.IsReady() {
		return nil, locatorerr.Newf(locatorerr.NotReady, op, "need at least %d readings, have %d", e.opts.MinReadings(), len(e.samples))
	}

	theta, err := e.initialTheta()
	if err != nil {
		return nil, err
	}

	result, err := levenbergMarquardt(ctx, op, e.opts, e.samples, theta)
	if err != nil {
		return nil, err
	}

	ok = true
	e.result = result
	return result, nil
}

// initialTheta builds the starting parameter vector per spec §4.3: caller
// seeds take priority; otherwise closed-form lateration when position-only;
// otherwise the mean of sample counterpart positions.
func (e *Estimator) initialTheta() ([]float64, error) {
	dim := e.opts.Dim
	theta := make([]float64, 0, e.opts.dimEstimated())

	if e.opts.PositionEnabled {
		pos, err := e.initialPosition()
		if err != nil {
			return nil, err
		}
		theta = append(theta, pos...)
		_ = dim
	}
	if e.opts.PteEnabled {
		theta = append(theta, e.opts.initialPteDbm())
	}
	if e.opts.NEnabled {
		theta = append(theta, e.opts.initialN())
	}
	return theta, nil
}

func (e *Estimator) initialPosition() ([]float64, error) {
	if e.opts.InitialPosition != nil {
		return e.opts.InitialPosition.Coords(), nil
	}

	onlyPosition := e.opts.PositionEnabled && !e.opts.PteEnabled && !e.opts.NEnabled
	if onlyPosition {
		if p, ok := closedFormLaterationSeed(e.opts.Dim, e.samples); ok {
			return p, nil
		}
	}

	// Fall back to the mean of counterpart ("nearest-neighbour source")
	// positions.
	mean := make([]float64, e.opts.Dim)
	n := 0
	for _, s := range e.samples {
		if s.Other.Dim() != e.opts.Dim {
			continue
		}
		for i := 0; i < e.opts.Dim; i++ {
			mean[i] += s.Other.At(i)
		}
		n++
	}
	if n == 0 {
		return nil, locatorerr.Newf(locatorerr.NotReady, "nlls.Estimator.initialPosition", "no samples with %d-dimensional counterpart positions", e.opts.Dim)
	}
	for i := range mean {
		mean[i] /= float64(n)
	}
	return mean, nil
}

// closedFormLaterationSeed attempts a cheap linear lateration over any
// ranging channels present, used only to seed LM — failures here simply
// fall through to the mean-of-neighbours seed.
func closedFormLaterationSeed(dim int, samples []Sample) ([]float64, bool) {
	type rangingPoint struct {
		pos []float64
		d   float64
	}
	var pts []rangingPoint
	for _, s := range samples {
		if !s.Reading.HasRanging() || s.Other.Dim() != dim {
			continue
		}
		pts = append(pts, rangingPoint{pos: s.Other.Coords(), d: s.Reading.Distance})
	}
	if len(pts) < dim+1 {
		return nil, false
	}

	// Build A x = b by subtracting the first equation from the rest.
	rows := len(pts) - 1
	a := mat.NewDense(rows, dim, nil)
	b := mat.NewVecDense(rows, nil)
	p0, d0 := pts[0].pos, pts[0].d
	sumSq0 := 0.0
	for _, v := range p0 {
		sumSq0 += v * v
	}
	for i := 1; i < len(pts); i++ {
		pi, di := pts[i].pos, pts[i].d
		sumSqI := 0.0
		for _, v := range pi {
			sumSqI += v * v
		}
		for j := 0; j < dim; j++ {
			a.Set(i-1, j, 2*(pi[j]-p0[j]))
		}
		rhs := (d0*d0 - di*di) - sumSq0 + sumSqI
		b.SetVec(i-1, rhs)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, false
	}
	out := make([]float64, dim)
	for i := 0; i < dim; i++ {
		out[i] = x.AtVec(i)
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return out, true
}

// forwardRssiDbm is the forward model buildRows evaluates; it calls
// propagation.ForwardDbm directly and is a plain function, not a
// replaceable variable.
func forwardRssiDbm(d, pte, n, freq float64) (float64, error) {
	return propagation.ForwardDbm(d, pte, n, freq)
}
