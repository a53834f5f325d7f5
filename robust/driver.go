package robust

import (
	"context"
	"math"
	"math/rand"

	"indoor-locator/locatorerr"
	"indoor-locator/radioio"
)

// SolveFunc fits a preliminary candidate from a drawn subset of sample
// indices. A non-convergent subset (degenerate geometry, singular normal
// equations) should return an error; the driver discards that sample and
// draws another, per spec §4.5.
type SolveFunc func(ctx context.Context, subset []int) (any, error)

// ResidualFunc returns sample i's signed residual against a candidate.
// For RangingAndRSSI readings callers combine the two channel residuals
// per spec §4.5's rule (Euclidean sum-of-squares divided by two) before
// returning a single scalar here.
type ResidualFunc func(candidate any, sampleIndex int) float64

// RefineFunc re-fits a candidate using every index declared an inlier.
// Returning an error causes the driver to keep the unrefined candidate
// (spec §4.5: "refinement failures downgrade gracefully").
type RefineFunc func(ctx context.Context, inliers []int) (any, *radioio.SymMatrix, error)

// Options configures a Driver. NumSamples, SubsetSize, Threshold and RNG
// are required (New rejects them when unset); Confidence, MaxIterations
// and StopThreshold get the documented defaults applied by New.
type Options struct {
	Method        Method
	NumSamples    int
	SubsetSize    int // minimum readings the inner estimator needs
	Threshold     float64
	Confidence    float64 // default 0.99
	MaxIterations int     // default 5000
	StopThreshold float64 // LMedS/PROMedS early-stop threshold, default 1e-4

	RefineResult   bool
	KeepCovariance bool

	QualityScores []float64 // required when the method needs them (PROSAC/PROMedS)

	RNG      *rand.Rand // required; caller owns seeding for determinism
	Listener *Listener
}

func (o *Options) applyDefaults() {
	if o.Confidence <= 0 {
		o.Confidence = 0.99
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 5000
	}
	if o.StopThreshold <= 0 {
		o.StopThreshold = 1e-4
	}
}

// Result is the outcome of a completed robust estimation run.
type Result struct {
	Candidate  any
	Inliers    []bool
	Iterations int
	Covariance *radioio.SymMatrix

	// GeometricDilution is a GDOP-style scalar summary of positioning
	// error, sqrt(trace(Covariance)), adapted from the teacher's
	// estimateErrorRadius geometry diagnostic. Zero when Covariance is
	// unavailable (refinement disabled, or RefineResult failed).
	GeometricDilution float64
}

// geometricDilution summarizes cov as a single GDOP-style error radius,
// the way the teacher's estimateErrorRadius reduces receiver geometry and
// measurement confidence to one scalar.
func geometricDilution(cov *radioio.SymMatrix) float64 {
	if cov == nil {
		return 0
	}
	return math.Sqrt(cov.Trace())
}

// Driver runs the generic robust estimation loop of spec §4.5: draw a
// subset, solve, score every reading's residual against the candidate,
// keep the best candidate under the policy's comparison rule, stop once
// the policy says to, then optionally refine over the declared inliers.
// The loop body never branches on Method; all method-specific behavior
// comes from the injected Policy.
type Driver struct {
	opts   Options
	policy Policy
}

func New(opts Options) (*Driver, error) {
	const op = "robust.New"
	opts.applyDefaults()
	if opts.NumSamples <= 0 {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, op, "NumSamples must be > 0")
	}
	if opts.SubsetSize <= 0 || opts.SubsetSize > opts.NumSamples {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, op, "SubsetSize must be in (0, NumSamples]")
	}
	if opts.Threshold <= 0 {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, op, "Threshold must be > 0")
	}
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, op, "Confidence must be in (0, 1)")
	}
	if opts.RNG == nil {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, op, "RNG is required (inject a seeded *rand.Rand for determinism)")
	}
	policy := NewPolicy(opts.Method)
	if policy.RequiresQualityScores() && len(opts.QualityScores) != opts.NumSamples {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, op, "%s requires QualityScores of length NumSamples (%d), got %d", opts.Method, opts.NumSamples, len(opts.QualityScores))
	}
	return &Driver{opts: opts, policy: policy}, nil
}

// Run executes the robust loop to completion. It never mutates opts
// passed at construction time, so a Driver may be reused across Run calls
// with different solve/residual/refine closures.
func (d *Driver) Run(ctx context.Context, solve SolveFunc, residual ResidualFunc, refine RefineFunc) (*Result, error) {
	const op = "robust.Driver.Run"

	var sampler *sampler
	if d.policy.RequiresQualityScores() {
		sampler = newQualitySampler(d.opts.RNG, d.opts.NumSamples, d.opts.SubsetSize, d.opts.QualityScores, d.opts.MaxIterations)
	} else {
		sampler = newUniformSampler(d.opts.RNG, d.opts.NumSamples, d.opts.SubsetSize)
	}

	var (
		bestCandidate  any
		bestScore      float64
		bestHasValue   bool
		requiredIters  = d.opts.MaxIterations
		solveSuccesses int
	)

	iter := 0
	for ; iter < d.opts.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, locatorerr.New(locatorerr.Cancelled, op, ctx.Err())
		default:
		}

		subset := sampler.draw(iter)
		candidate, err := solve(ctx, subset)
		if err != nil {
			d.opts.Listener.iteration(iter, bestScore)
			continue
		}
		solveSuccesses++

		residuals := make([]float64, d.opts.NumSamples)
		for i := 0; i < d.opts.NumSamples; i++ {
			residuals[i] = residual(candidate, i)
		}
		score := d.policy.Score(residuals, d.opts.Threshold)

		if !bestHasValue || d.policy.Better(score, bestScore) {
			bestCandidate, bestScore, bestHasValue = candidate, score, true

			mask := d.policy.InlierMask(residuals, d.opts.Threshold, bestScore)
			inlierCount := 0
			for _, b := range mask {
				if b {
					inlierCount++
				}
			}
			epsilon := 1 - float64(inlierCount)/float64(d.opts.NumSamples)
			requiredIters = min(d.policy.RequiredIterations(epsilon, d.opts.SubsetSize, d.opts.Confidence), d.opts.MaxIterations)
		}

		d.opts.Listener.iteration(iter, bestScore)
		if d.opts.MaxIterations > 0 {
			d.opts.Listener.progress(float64(iter+1) / float64(requiredIters))
		}

		if iter+1 >= requiredIters {
			iter++
			break
		}
		if d.policy.StopEarly(bestScore, d.opts.StopThreshold) {
			iter++
			break
		}
	}

	if !bestHasValue {
		if solveSuccesses == 0 {
			return nil, locatorerr.Newf(locatorerr.RobustFailure, op, "no subset converged in %d iterations", d.opts.MaxIterations)
		}
		return nil, locatorerr.Newf(locatorerr.RobustFailure, op, "no candidate satisfied the %s scoring rule", d.opts.Method)
	}

	finalResiduals := make([]float64, d.opts.NumSamples)
	for i := 0; i < d.opts.NumSamples; i++ {
		finalResiduals[i] = residual(bestCandidate, i)
	}
	mask := d.policy.InlierMask(finalResiduals, d.opts.Threshold, bestScore)

	result := &Result{Candidate: bestCandidate, Inliers: mask, Iterations: iter}

	if d.opts.RefineResult && refine != nil {
		inlierIdx := make([]int, 0, len(mask))
		for i, ok := range mask {
			if ok {
				inlierIdx = append(inlierIdx, i)
			}
		}
		if len(inlierIdx) >= d.opts.SubsetSize {
			refined, cov, err := refine(ctx, inlierIdx)
			if err == nil {
				result.Candidate = refined
				if d.opts.KeepCovariance {
					result.Covariance = cov
					result.GeometricDilution = geometricDilution(cov)
				}
			}
		}
	}

	return result, nil
}
