package nlls

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"indoor-locator/locatorerr"
	"indoor-locator/radioio"
)

// layout describes where each enabled parameter lives inside theta.
type layout struct {
	dim          int
	posOffset    int // -1 if disabled
	pteOffset    int
	nOffset      int
	totalParams  int
}

func newLayout(opts Options) layout {
	l := layout{dim: opts.Dim, posOffset: -1, pteOffset: -1, nOffset: -1}
	idx := 0
	if opts.PositionEnabled {
		l.posOffset = idx
		idx += opts.Dim
	}
	if opts.PteEnabled {
		l.pteOffset = idx
		idx++
	}
	if opts.NEnabled {
		l.nOffset = idx
		idx++
	}
	l.totalParams = idx
	return l
}

func (l layout) position(theta []float64, fixed radioio.Point) []float64 {
	if l.posOffset < 0 {
		return fixed.Coords()
	}
	return theta[l.posOffset : l.posOffset+l.dim]
}

func (l layout) pte(theta []float64, fixed float64) float64 {
	if l.pteOffset < 0 {
		return fixed
	}
	return theta[l.pteOffset]
}

func (l layout) n(theta []float64, fixed float64) float64 {
	if l.nOffset < 0 {
		return fixed
	}
	return theta[l.nOffset]
}

// residualRow is one row of the weighted residual system.
type residualRow struct {
	value float64
	jac   []float64 // len == layout.totalParams
}

func quadForm(cov *radioio.SymMatrix, grad []float64) float64 {
	if cov == nil {
		return 0
	}
	sum := 0.0
	for i := 0; i < len(grad); i++ {
		for j := 0; j < len(grad); j++ {
			sum += grad[i] * cov.At(i, j) * grad[j]
		}
	}
	return sum
}

func buildRows(l layout, opts Options, samples []Sample, theta []float64) ([]residualRow, error) {
	fixedPos := radioio.Point{}
	if opts.InitialPosition != nil {
		fixedPos = *opts.InitialPosition
	}
	pos := l.position(theta, fixedPos)
	pte := l.pte(theta, opts.initialPteDbm())
	n := l.n(theta, opts.initialN())

	rows := make([]residualRow, 0, 2*len(samples))

	for _, s := range samples {
		diff := make([]float64, l.dim)
		sumSq := 0.0
		for i := 0; i < l.dim; i++ {
			diff[i] = pos[i] - s.Other.At(i)
			sumSq += diff[i] * diff[i]
		}
		d := math.Sqrt(sumSq)
		if d < 1e-9 {
			d = 1e-9
		}

		if s.Reading.HasRanging() {
			sigma := s.Reading.EffectiveDistanceStd()
			if opts.UseReadingPositionCovariances && s.OtherCovariance != nil {
				unit := make([]float64, l.dim)
				for i := range unit {
					unit[i] = diff[i] / d
				}
				sigma = math.Sqrt(sigma*sigma + quadForm(s.OtherCovariance, unit))
			}

			jac := make([]float64, l.totalParams)
			if l.posOffset >= 0 {
				for i := 0; i < l.dim; i++ {
					jac[l.posOffset+i] = diff[i] / d / sigma
				}
			}
			residual := (s.Reading.Distance - d) / sigma
			rows = append(rows, residualRow{value: residual, jac: jac})
		}

		if s.Reading.HasRSSI() {
			sigma := s.Reading.EffectiveRSSIStd()
			predicted, err := forwardRssiDbm(d, pte, n, s.Reading.Source.FrequencyHz)
			if err != nil {
				return nil, locatorerr.New(locatorerr.NumericalFailure, "nlls.buildRows", err)
			}

			coeffPos := -(10 * n) / math.Ln10 / (d * d)
			gradPos := make([]float64, l.dim)
			for i := 0; i < l.dim; i++ {
				gradPos[i] = coeffPos * diff[i]
			}

			if opts.UseReadingPositionCovariances && s.OtherCovariance != nil {
				sigma = math.Sqrt(sigma*sigma + quadForm(s.OtherCovariance, gradPos))
			}

			jac := make([]float64, l.totalParams)
			if l.posOffset >= 0 {
				for i := 0; i < l.dim; i++ {
					jac[l.posOffset+i] = gradPos[i] / sigma
				}
			}
			if l.pteOffset >= 0 {
				jac[l.pteOffset] = 1.0 / sigma
			}
			if l.nOffset >= 0 {
				jac[l.nOffset] = -10 * math.Log10(d) / sigma
			}
			residual := (s.Reading.RSSIdBm - predicted) / sigma
			rows = append(rows, residualRow{value: residual, jac: jac})
		}
	}
	return rows, nil
}

// rejectOutliers drops rows whose squared standardized residual exceeds
// threshold, per spec §4.3's chi_squared_threshold. A zero threshold
// disables rejection. Applied every iteration so a sample excluded at
// the current theta can re-enter once the fit moves past it.
func rejectOutliers(rows []residualRow, threshold float64) []residualRow {
	if threshold <= 0 {
		return rows
	}
	kept := rows[:0]
	for _, row := range rows {
		if row.value*row.value <= threshold {
			kept = append(kept, row)
		}
	}
	return kept
}

// levenbergMarquardt runs LM to convergence per spec §4.3: ‖Δθ‖/(‖θ‖+ε) <
// 1e-8 or residual-norm change < 1e-12, hard cap of MaxIterations (default
// 100).
func levenbergMarquardt(ctx context.Context, op string, opts Options, samples []Sample, theta0 []float64) (*Result, error) {
	l := newLayout(opts)
	theta := append([]float64(nil), theta0...)
	p := l.totalParams

	lambda := 1e-3
	prevCost := math.Inf(1)

	var lastRows []residualRow
	iterations := 0

	for iter := 0; iter < opts.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, locatorerr.New(locatorerr.Cancelled, op, ctx.Err())
		default:
		}
		iterations = iter + 1

		rows, err := buildRows(l, opts, samples, theta)
		if err != nil {
			return nil, err
		}
		rows = rejectOutliers(rows, opts.ChiSquaredThreshold)
		lastRows = rows
		if len(rows) < p {
			return nil, locatorerr.Newf(locatorerr.NumericalFailure, op, "underdetermined system: %d residual rows for %d parameters", len(rows), p)
		}

		cost := 0.0
		jt := mat.NewDense(p, len(rows), nil)
		r := mat.NewVecDense(len(rows), nil)
		for i, row := range rows {
			r.SetVec(i, row.value)
			cost += row.value * row.value
			for k := 0; k < p; k++ {
				jt.Set(k, i, row.jac[k])
			}
		}

		if math.IsNaN(cost) || math.IsInf(cost, 0) {
			return nil, locatorerr.Newf(locatorerr.NumericalFailure, op, "non-finite residual encountered")
		}

		var jtj mat.Dense
		jtj.Mul(jt, jt.T())
		var jtr mat.VecDense
		jtr.MulVec(jt, r)

		// Levenberg–Marquardt augmented normal equations.
		var augmented mat.Dense
		augmented.CloneFrom(&jtj)
		for k := 0; k < p; k++ {
			augmented.Set(k, k, augmented.At(k, k)*(1+lambda))
		}

		var delta mat.VecDense
		if err := delta.SolveVec(&augmented, &jtr); err != nil {
			return nil, locatorerr.New(locatorerr.NumericalFailure, op, err)
		}

		thetaNorm := 0.0
		for _, v := range theta {
			thetaNorm += v * v
		}
		thetaNorm = math.Sqrt(thetaNorm)

		deltaNorm := 0.0
		for k := 0; k < p; k++ {
			deltaNorm += delta.AtVec(k) * delta.AtVec(k)
		}
		deltaNorm = math.Sqrt(deltaNorm)

		for k := 0; k < p; k++ {
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

	return finalizeResult(op, opts, l, theta, lastRows, iterations)
}

func finalizeResult(op string, opts Options, l layout, theta []float64, rows []residualRow, iterations int) (*Result, error) {
	p := l.totalParams
	n := len(rows)
	if n <= p {
		return nil, locatorerr.Newf(locatorerr.NumericalFailure, op, "insufficient residual rows (%d) for covariance with %d free parameters", n, p)
	}

	jt := mat.NewDense(p, n, nil)
	sumSq := 0.0
	for i, row := range rows {
		sumSq += row.value * row.value
		for k := 0; k < p; k++ {
			jt.Set(k, i, row.jac[k])
		}
	}
	reducedChiSquare := sumSq / float64(n-p)

	var jtj mat.Dense
	jtj.Mul(jt, jt.T())

	var jtjInv mat.Dense
	if err := jtjInv.Inverse(&jtj); err != nil {
		return nil, locatorerr.New(locatorerr.NumericalFailure, op, err)
	}

	covData := make([]float64, p*p)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			covData[i*p+j] = reducedChiSquare * jtjInv.At(i, j)
		}
	}
	fullCov, err := radioio.NewSymMatrix(p, covData)
	if err != nil {
		return nil, locatorerr.New(locatorerr.NumericalFailure, op, err)
	}

	result := &Result{
		ReducedChiSquare: reducedChiSquare,
		Iterations:       iterations,
		Covariance:       fullCov,
	}

	if l.posOffset >= 0 {
		coords := make([]float64, l.dim)
		copy(coords, theta[l.posOffset:l.posOffset+l.dim])
		pt, err := radioio.NewPoint(coords...)
		if err != nil {
			return nil, locatorerr.New(locatorerr.NumericalFailure, op, err)
		}
		result.Position = pt

		posCovData := make([]float64, l.dim*l.dim)
		for i := 0; i < l.dim; i++ {
			for j := 0; j < l.dim; j++ {
				posCovData[i*l.dim+j] = covData[(l.posOffset+i)*p+(l.posOffset+j)]
			}
		}
		posCov, err := radioio.NewSymMatrix(l.dim, posCovData)
		if err == nil {
			result.PositionCovariance = posCov
		}
	} else if opts.InitialPosition != nil {
		result.Position = *opts.InitialPosition
	}

	if l.pteOffset >= 0 {
		result.PteDbm = theta[l.pteOffset]
	} else {
		result.PteDbm = opts.initialPteDbm()
	}
	if l.nOffset >= 0 {
		result.N = theta[l.nOffset]
	} else {
		result.N = opts.initialN()
	}

	return result, nil
}
