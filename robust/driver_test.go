package robust

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"indoor-locator/locatorerr"
	"indoor-locator/radioio"
)

// line1D fits a 1D candidate (a single float64: the mean of a 2-point
// subset) and reports its residual as the signed difference between each
// data point and the candidate, giving the driver tests a minimal domain that does not need the
// full nlls/lateration machinery.
func line1DSolve(data []float64) SolveFunc {
	return func(ctx context.Context, subset []int) (any, error) {
		if len(subset) == 0 {
			return nil, locatorerr.Newf(locatorerr.NumericalFailure, "test", "empty subset")
		}
		sum := 0.0
		for _, i := range subset {
			sum += data[i]
		}
		return sum / float64(len(subset)), nil
	}
}

func line1DResidual(data []float64) ResidualFunc {
	return func(candidate any, i int) float64 {
		return data[i] - candidate.(float64)
	}
}

func TestRANSACRecoversInlierMean(t *testing.T) {
	// 8 inliers clustered near 10.0, 2 outliers far away.
	data := []float64{9.9, 10.0, 10.1, 9.95, 10.05, 10.02, 9.98, 10.03, 50.0, -30.0}

	d, err := New(Options{
		Method:        RANSAC,
		NumSamples:    len(data),
		SubsetSize:    2,
		Threshold:     1.0,
		MaxIterations: 500,
		RNG:           rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := d.Run(context.Background(), line1DSolve(data), line1DResidual(data), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	mean := result.Candidate.(float64)
	if math.Abs(mean-10.0) > 0.2 {
		t.Errorf("candidate = %v, want ~10.0", mean)
	}
	inlierCount := 0
	for _, ok := range result.Inliers {
		if ok {
			inlierCount++
		}
	}
	if inlierCount < 7 {
		t.Errorf("inlierCount = %d, want >= 7", inlierCount)
	}
	if result.Inliers[8] || result.Inliers[9] {
		t.Errorf("outliers 50.0/-30.0 were declared inliers: %v", result.Inliers)
	}
}

func TestMSACRecoversInlierMean(t *testing.T) {
	data := []float64{9.9, 10.0, 10.1, 9.95, 10.05, 10.02, 9.98, 10.03, 50.0, -30.0}
	d, err := New(Options{
		Method:        MSAC,
		NumSamples:    len(data),
		SubsetSize:    2,
		Threshold:     1.0,
		MaxIterations: 500,
		RNG:           rand.New(rand.NewSource(2)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := d.Run(context.Background(), line1DSolve(data), line1DResidual(data), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	mean := result.Candidate.(float64)
	if math.Abs(mean-10.0) > 0.2 {
		t.Errorf("candidate = %v, want ~10.0", mean)
	}
}

func TestLMedSRecoversInlierMean(t *testing.T) {
	data := []float64{9.9, 10.0, 10.1, 9.95, 10.05, 10.02, 9.98, 10.03, 50.0, -30.0}
	d, err := New(Options{
		Method:        LMedS,
		NumSamples:    len(data),
		SubsetSize:    2,
		Threshold:     1.0,
		MaxIterations: 500,
		RNG:           rand.New(rand.NewSource(3)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := d.Run(context.Background(), line1DSolve(data), line1DResidual(data), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	mean := result.Candidate.(float64)
	if math.Abs(mean-10.0) > 0.2 {
		t.Errorf("candidate = %v, want ~10.0", mean)
	}
}

func TestPROSACRequiresQualityScores(t *testing.T) {
	data := []float64{1, 2, 3}
	_, err := New(Options{
		Method:        PROSAC,
		NumSamples:    len(data),
		SubsetSize:    2,
		Threshold:     1.0,
		MaxIterations: 10,
		RNG:           rand.New(rand.NewSource(4)),
	})
	if !locatorerr.Is(err, locatorerr.InvalidArgument) {
		t.Errorf("expected InvalidArgument without QualityScores, got %v", err)
	}
}

func TestPROSACRecoversInlierMeanWithQualityScores(t *testing.T) {
	data := []float64{9.9, 10.0, 10.1, 9.95, 10.05, 10.02, 9.98, 10.03, 50.0, -30.0}
	quality := []float64{0.9, 0.95, 0.85, 0.8, 0.9, 0.92, 0.88, 0.91, 0.1, 0.05}

	d, err := New(Options{
		Method:        PROSAC,
		NumSamples:    len(data),
		SubsetSize:    2,
		Threshold:     1.0,
		MaxIterations: 500,
		QualityScores: quality,
		RNG:           rand.New(rand.NewSource(5)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := d.Run(context.Background(), line1DSolve(data), line1DResidual(data), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	mean := result.Candidate.(float64)
	if math.Abs(mean-10.0) > 0.2 {
		t.Errorf("candidate = %v, want ~10.0", mean)
	}
}

func TestRefineResultIsAppliedOverInliers(t *testing.T) {
	data := []float64{9.9, 10.0, 10.1, 9.95, 10.05, 10.02, 9.98, 10.03, 50.0, -30.0}
	d, err := New(Options{
		Method:        RANSAC,
		NumSamples:    len(data),
		SubsetSize:    2,
		Threshold:     1.0,
		MaxIterations: 500,
		RefineResult:  true,
		RNG:           rand.New(rand.NewSource(6)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const refinedValue = 10.01
	refine := RefineFunc(func(ctx context.Context, inliers []int) (any, *radioio.SymMatrix, error) {
		return refinedValue, nil, nil
	})

	result, err := d.Run(context.Background(), line1DSolve(data), line1DResidual(data), refine)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := result.Candidate.(float64); got != refinedValue {
		t.Errorf("Candidate = %v, want refined value %v", got, refinedValue)
	}
}

func TestGeometricDilutionComputedFromRefinedCovariance(t *testing.T) {
	data := []float64{9.9, 10.0, 10.1, 9.95, 10.05, 10.02, 9.98, 10.03, 50.0, -30.0}
	d, err := New(Options{
		Method:         RANSAC,
		NumSamples:     len(data),
		SubsetSize:     2,
		Threshold:      1.0,
		MaxIterations:  500,
		RefineResult:   true,
		KeepCovariance: true,
		RNG:            rand.New(rand.NewSource(6)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cov, err := radioio.NewSymMatrix(1, []float64{0.25})
	if err != nil {
		t.Fatalf("NewSymMatrix: %v", err)
	}
	refine := RefineFunc(func(ctx context.Context, inliers []int) (any, *radioio.SymMatrix, error) {
		return 10.01, cov, nil
	})

	result, err := d.Run(context.Background(), line1DSolve(data), line1DResidual(data), refine)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Covariance == nil {
		t.Fatalf("Covariance = nil, want the refined covariance")
	}
	if want := 0.5; result.GeometricDilution != want {
		t.Errorf("GeometricDilution = %v, want %v", result.GeometricDilution, want)
	}
}

func TestGeometricDilutionZeroWithoutCovariance(t *testing.T) {
	data := []float64{9.9, 10.0, 10.1, 9.95, 10.05}
	d, err := New(Options{
		Method:        RANSAC,
		NumSamples:    len(data),
		SubsetSize:    2,
		Threshold:     1.0,
		MaxIterations: 500,
		RNG:           rand.New(rand.NewSource(3)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := d.Run(context.Background(), line1DSolve(data), line1DResidual(data), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.GeometricDilution != 0 {
		t.Errorf("GeometricDilution = %v, want 0 without refinement", result.GeometricDilution)
	}
}

func TestRANSACCancellation(t *testing.T) {
	data := []float64{9.9, 10.0, 10.1, 9.95, 10.05}
	d, err := New(Options{
		Method:        RANSAC,
		NumSamples:    len(data),
		SubsetSize:    2,
		Threshold:     1.0,
		MaxIterations: 500,
		RNG:           rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Run(ctx, line1DSolve(data), line1DResidual(data), nil); !locatorerr.Is(err, locatorerr.Cancelled) {
		t.Errorf("expected Cancelled, got %v", err)
	}
}

func TestRobustFailureWhenNoSubsetConverges(t *testing.T) {
	alwaysFail := func(ctx context.Context, subset []int) (any, error) {
		return nil, locatorerr.Newf(locatorerr.NumericalFailure, "test", "always fails")
	}
	d, err := New(Options{
		Method:        RANSAC,
		NumSamples:    5,
		SubsetSize:    2,
		Threshold:     1.0,
		MaxIterations: 10,
		RNG:           rand.New(rand.NewSource(8)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = d.Run(context.Background(), alwaysFail, func(c any, i int) float64 { return 0 }, nil)
	if !locatorerr.Is(err, locatorerr.RobustFailure) {
		t.Errorf("expected RobustFailure, got %v", err)
	}
}
