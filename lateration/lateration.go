// Package lateration implements closed-form linear and nonlinear
// multilateration from ranging readings (spec §4.4), used directly by
// ranging-only receiver estimators and to seed the nlls inner estimator.
package lateration

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"indoor-locator/internal/estimatorstate"
	"indoor-locator/locatorerr"
	"indoor-locator/radioio"
)

// Anchor is one ranging observation: a known anchor position, a measured
// distance to it, and that measurement's standard deviation.
type Anchor struct {
	Position radioio.Point
	Distance float64
	Std      float64 // > 0; callers pass radioio.DefaultRangingStdM when unknown
}

// Result is the estimated position plus its covariance.
type Result struct {
	Position   radioio.Point
	Covariance *radioio.SymMatrix
}

// Estimator runs linear lateration followed by nonlinear LM refinement.
type Estimator struct {
	estimatorstate.Machine

	dim     int
	anchors []Anchor
	result  *Result
}

func New(dim int) (*Estimator, error) {
	if dim != 2 && dim != 3 {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, "lateration.New", "dim must be 2 or 3, got %d", dim)
	}
	e := &Estimator{dim: dim}
	e.MarkConfigured()
	return e, nil
}

func (e *Estimator) SetAnchors(anchors []Anchor) error {
	if err := e.GuardMutation("lateration.Estimator.SetAnchors"); err != nil {
		return err
	}
	for _, a := range anchors {
		if a.Position.Dim() != e.dim {
			return locatorerr.Newf(locatorerr.InvalidArgument, "lateration.Estimator.SetAnchors", "anchor dimension %d does not match estimator dimension %d", a.Position.Dim(), e.dim)
		}
		if a.Distance < 0 {
			return locatorerr.Newf(locatorerr.InvalidArgument, "lateration.Estimator.SetAnchors", "distance must be >= 0, got %v", a.Distance)
		}
		if a.Std <= 0 {
			return locatorerr.Newf(locatorerr.InvalidArgument, "lateration.Estimator.SetAnchors", "std must be > 0, got %v", a.Std)
		}
	}
	cp := make([]Anchor, len(anchors))
	copy(cp, anchors)
	e.anchors = cp
	if len(e.anchors) >= e.dim+1 {
		e.MarkReady()
	}
	return nil
}

func (e *Estimator) MinReadings() int {
	return e.dim + 1
}

func (e *Estimator) IsReady() bool {
	return len(e.anchors) >= e.MinReadings()
}

func (e *Estimator) Result() *Result {
	return e.result
}

func (e *Estimator) Estimate(ctx context.Context) (*Result, error) {
	const op = "lateration.Estimator.Estimate"
	if err := e.BeginRun(op); err != nil {
		return nil, err
	}
	ok := false
	defer func() { e.Finish(ok) }()

	if !e.IsReady() {
		return nil, locatorerr.Newf(locatorerr.NotReady, op, "need at least %d anchors, have %d", e.MinReadings(), len(e.anchors))
	}

	linear, err := LinearSolve(e.dim, e.anchors)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, locatorerr.New(locatorerr.Cancelled, op, ctx.Err())
	default:
	}

	refined, err := NonlinearRefine(ctx, op, e.dim, e.anchors, linear)
	if err != nil {
		return nil, err
	}

	ok = true
	e.result = refined
	return refined, nil
}

// LinearSolve implements spec §4.4(1): subtract the first anchor's
// equation from the others to obtain a linear system in position
// coordinates, solved by weighted least squares with weights 1/σ².
// Requires K >= D+1 anchors; degenerate (collinear/coplanar) geometry
// surfaces NumericalFailure.
func LinearSolve(dim int, anchors []Anchor) (radioio.Point, error) {
	const op = "lateration.LinearSolve"
	if len(anchors) < dim+1 {
		return radioio.Point{}, locatorerr.Newf(locatorerr.NotReady, op, "need at least %d anchors, got %d", dim+1, len(anchors))
	}

	p0 := anchors[0].Position.Coords()
	sumSq0 := 0.0
	for _, v := range p0 {
		sumSq0 += v * v
	}
	d0 := anchors[0].Distance

	rows := len(anchors) - 1
	a := mat.NewDense(rows, dim, nil)
	b := mat.NewVecDense(rows, nil)
	weights := mat.NewDiagDense(rows, nil)

	for i := 1; i < len(anchors); i++ {
		pi := anchors[i].Position.Coords()
		sumSqI := 0.0
		for _, v := range pi {
			sumSqI += v * v
		}
		for j := 0; j < dim; j++ {
			a.Set(i-1, j, 2*(pi[j]-p0[j]))
		}
		rhs := (d0*d0 - anchors[i].Distance*anchors[i].Distance) - sumSq0 + sumSqI
		b.SetVec(i-1, rhs)
		weights.SetDiag(i-1, 1.0/(anchors[i].Std*anchors[i].Std))
	}

	// Weighted normal equations: (AᵀWA) x = AᵀWb.
	var wa mat.Dense
	wa.Mul(weights, a)
	var ata mat.Dense
	ata.Mul(a.T(), &wa)

	var wb mat.VecDense
	wb.MulVec(weights, b)
	var atb mat.VecDense
	atb.MulVec(a.T(), &wb)

	var x mat.VecDense
	if err := x.SolveVec(&ata, &atb); err != nil {
		return radioio.Point{}, locatorerr.New(locatorerr.NumericalFailure, op, err)
	}

	coords := make([]float64, dim)
	for i := 0; i < dim; i++ {
		v := x.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return radioio.Point{}, locatorerr.Newf(locatorerr.NumericalFailure, op, "degenerate anchor geometry")
		}
		coords[i] = v
	}
	return radioio.NewPoint(coords...)
}

// NonlinearRefine implements spec §4.4(2): LM minimization of
// Σ((dᵢ − ‖p − sᵢ‖)/σᵢ)², initialized from LinearSolve.
func NonlinearRefine(ctx context.Context, op string, dim int, anchors []Anchor, seed radioio.Point) (*Result, error) {
	theta := seed.Coords()
	lambda := 1e-3
	prevCost := math.Inf(1)

	maxIterations := 100
	n := len(anchors)

	var lastJt *mat.Dense
	var lastResidual []float64

	for iter := 0; iter < maxIterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, locatorerr.New(locatorerr.Cancelled, op, ctx.Err())
		default:
		}

		residual := make([]float64, n)
		jt := mat.NewDense(dim, n, nil)
		cost := 0.0

		for i, anc := range anchors {
			diff := make([]float64, dim)
			sumSq := 0.0
			apos := anc.Position.Coords()
			for k := 0; k < dim; k++ {
				diff[k] = theta[k] - apos[k]
				sumSq += diff[k] * diff[k]
			}
			d := math.Sqrt(sumSq)
			if d < 1e-9 {
				d = 1e-9
			}
			r := (anc.Distance - d) / anc.Std
			residual[i] = r
			cost += r * r
			for k := 0; k < dim; k++ {
				jt.Set(k, i, (diff[k]/d)/anc.Std)
			}
		}
		lastJt = jt
		lastResidual = residual

		if math.IsNaN(cost) || math.IsInf(cost, 0) {
			return nil, locatorerr.Newf(locatorerr.NumericalFailure, op, "non-finite residual in lateration refinement")
		}

		r := mat.NewVecDense(n, residual)
		var jtj mat.Dense
		jtj.Mul(jt, jt.T())
		var jtr mat.VecDense
		jtr.MulVec(jt, r)

		var augmented mat.Dense
		augmented.CloneFrom(&jtj)
		for k := 0; k < dim; k++ {
			augmented.Set(k, k, augmented.At(k, k)*(1+lambda))
		}

		var delta mat.VecDense
		if err := delta.SolveVec(&augmented, &jtr); err != nil {
			return nil, locatorerr.New(locatorerr.NumericalFailure, op, err)
		}

		thetaNorm, deltaNorm := 0.0, 0.0
		for k := 0; k < dim; k++ {
			thetaNorm += theta[k] * theta[k]
			deltaNorm += delta.AtVec(k) * delta.AtVec(k)
		}
		thetaNorm, deltaNorm = math.Sqrt(thetaNorm), math.Sqrt(deltaNorm)

		for k := 0; k < dim; k++ {
			theta[k] += delta.AtVec(k)
		}

		converged := deltaNorm/(thetaNorm+1e-12) < 1e-8 || math.Abs(cost-prevCost) < 1e-12
		if cost < prevCost {
			lambda = math.Max(lambda*0.5, 1e-12)
		} else {
			lambda = math.Min(lambda*2, 1e12)
		}
		prevCost = cost

		if converged {
			break
		}
	}

	if n <= dim {
		return nil, locatorerr.Newf(locatorerr.NumericalFailure, op, "insufficient anchors (%d) for covariance with dim %d", n, dim)
	}

	var jtj mat.Dense
	jtj.Mul(lastJt, lastJt.T())
	var jtjInv mat.Dense
	if err := jtjInv.Inverse(&jtj); err != nil {
		return nil, locatorerr.New(locatorerr.NumericalFailure, op, err)
	}

	sumSq := 0.0
	for _, v := range lastResidual {
		sumSq += v * v
	}
	sigmaHatSq := sumSq / float64(n-dim)

	covData := make([]float64, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			covData[i*dim+j] = sigmaHatSq * jtjInv.At(i, j)
		}
	}
	cov, err := radioio.NewSymMatrix(dim, covData)
	if err != nil {
		return nil, locatorerr.New(locatorerr.NumericalFailure, op, err)
	}

	pos, err := radioio.NewPoint(theta...)
	if err != nil {
		return nil, locatorerr.New(locatorerr.NumericalFailure, op, err)
	}

	return &Result{Position: pos, Covariance: cov}, nil
}
