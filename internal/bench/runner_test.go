package bench

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"indoor-locator/robust"
)

func TestRunRobustSourceEstimateRecoversTruePositionWithOutliers(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	fixture, err := GenerateSourceFixture(rng, 2, 25, 0.2, 2.4e9)
	if err != nil {
		t.Fatalf("GenerateSourceFixture: %v", err)
	}

	outcome, err := RunRobustSourceEstimate(context.Background(), fixture, RobustRunOptions{
		Method:        robust.RANSAC,
		Threshold:     3.0,
		Confidence:    0.99,
		MaxIterations: 2000,
		RNG:           rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("RunRobustSourceEstimate: %v", err)
	}

	got := outcome.Result.Position
	want := fixture.TruePosition
	if got.Distance(want) > 1.0 {
		t.Errorf("recovered position %v too far from true position %v (dist=%v)", got, want, got.Distance(want))
	}

	inlierCount := 0
	for _, ok := range outcome.InlierMask {
		if ok {
			inlierCount++
		}
	}
	nonOutliers := 0
	for _, o := range fixture.IsOutlier {
		if !o {
			nonOutliers++
		}
	}
	if math.Abs(float64(inlierCount-nonOutliers)) > float64(len(fixture.Readings))/4 {
		t.Errorf("inlierCount = %d, want close to %d non-outlier readings", inlierCount, nonOutliers)
	}
}

func TestRunRobustSourceEstimateWithPROSACQualityScores(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	fixture, err := GenerateSourceFixture(rng, 2, 25, 0.2, 2.4e9)
	if err != nil {
		t.Fatalf("GenerateSourceFixture: %v", err)
	}

	outcome, err := RunRobustSourceEstimate(context.Background(), fixture, RobustRunOptions{
		Method:        robust.PROSAC,
		Threshold:     3.0,
		Confidence:    0.99,
		MaxIterations: 2000,
		RNG:           rand.New(rand.NewSource(11)),
	})
	if err != nil {
		t.Fatalf("RunRobustSourceEstimate: %v", err)
	}
	if outcome.Result.Position.Distance(fixture.TruePosition) > 1.5 {
		t.Errorf("PROSAC recovered position too far from truth: %v", outcome.Result.Position)
	}
}
