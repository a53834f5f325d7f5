package bench

import (
	"context"
	"math/rand"

	"indoor-locator/locatorerr"
	"indoor-locator/nlls"
	"indoor-locator/propagation"
	"indoor-locator/radioio"
	"indoor-locator/robust"
)

// RobustRunOptions configures one robustified-source-estimate scenario.
type RobustRunOptions struct {
	Method         robust.Method
	Threshold      float64
	Confidence     float64
	MaxIterations  int
	StopThreshold  float64
	RefineResult   bool
	KeepCovariance bool
	RNG            *rand.Rand
}

// SourceEstimateOutcome is what a scenario run reports back to the CLI.
type SourceEstimateOutcome struct {
	Result            *nlls.Result
	Iterations        int
	InlierMask        []bool
	Covariance        *radioio.SymMatrix
	GeometricDilution float64
}

// RunRobustSourceEstimate drives SourceFixture's readings through
// robust.Driver using nlls as the inner estimator (spec §4.5: "call the
// inner estimator (C3 or C4) on the subset"), estimating the source's
// position, Pte and path-loss exponent while tolerating the fixture's
// outliers.
func RunRobustSourceEstimate(ctx context.Context, fixture SourceFixture, opts RobustRunOptions) (*SourceEstimateOutcome, error) {
	const op = "bench.RunRobustSourceEstimate"

	nllsOpts := nlls.DefaultOptions(fixture.Dim)
	nllsOpts.PositionEnabled = true
	nllsOpts.PteEnabled = true
	nllsOpts.NEnabled = true
	subsetSize := nllsOpts.MinReadings()

	solve := func(ctx context.Context, subset []int) (any, error) {
		samples := make([]nlls.Sample, len(subset))
		for i, idx := range subset {
			samples[i] = nlls.Sample{Other: fixture.ReceiverPositions[idx], Reading: fixture.Readings[idx]}
		}
		est, err := nlls.New(nllsOpts)
		if err != nil {
			return nil, err
		}
		if err := est.SetSamples(samples); err != nil {
			return nil, err
		}
		return est.Estimate(ctx)
	}

	residual := func(candidate any, i int) float64 {
		res := candidate.(*nlls.Result)
		d := res.Position.Distance(fixture.ReceiverPositions[i])
		pred, err := propagation.ForwardDbm(d, res.PteDbm, res.N, fixture.FrequencyHz)
		if err != nil {
			return 1e9
		}
		observed := fixture.Readings[i].RSSIdBm
		return (observed - pred) / fixture.Readings[i].EffectiveRSSIStd()
	}

	var refine robust.RefineFunc
	if opts.RefineResult {
		refine = func(ctx context.Context, inliers []int) (any, *radioio.SymMatrix, error) {
			candidate, err := solve(ctx, inliers)
			if err != nil {
				return nil, nil, err
			}
			res := candidate.(*nlls.Result)
			return res, res.Covariance, nil
		}
	}

	driverOpts := robust.Options{
		Method:         opts.Method,
		NumSamples:     len(fixture.Readings),
		SubsetSize:     subsetSize,
		Threshold:      opts.Threshold,
		Confidence:     opts.Confidence,
		MaxIterations:  opts.MaxIterations,
		StopThreshold:  opts.StopThreshold,
		RefineResult:   opts.RefineResult,
		KeepCovariance: opts.KeepCovariance,
		RNG:            opts.RNG,
	}
	policy := robust.NewPolicy(opts.Method)
	if policy.RequiresQualityScores() {
		driverOpts.QualityScores = fixture.QualityScores
	}

	driver, err := robust.New(driverOpts)
	if err != nil {
		return nil, locatorerr.New(locatorerr.InvalidArgument, op, err)
	}

	result, err := driver.Run(ctx, solve, residual, refine)
	if err != nil {
		return nil, err
	}

	return &SourceEstimateOutcome{
		Result:            result.Candidate.(*nlls.Result),
		Iterations:        result.Iterations,
		InlierMask:        result.Inliers,
		Covariance:        result.Covariance,
		GeometricDilution: result.GeometricDilution,
	}, nil
}
