package nlls

import (
	"context"
	"math"
	"testing"

	"indoor-locator/propagation"
	"indoor-locator/radioio"
)

func mustSource(t *testing.T, bssid string, freq float64) radioio.RadioSource {
	t.Helper()
	s, err := radioio.NewWiFiAP(bssid, freq)
	if err != nil {
		t.Fatalf("NewWiFiAP: %v", err)
	}
	return s
}

func TestMinReadings(t *testing.T) {
	opts := DefaultOptions(2)
	opts.PositionEnabled = true
	opts.PteEnabled = true
	if got, want := opts.MinReadings(), 2+1+1; got != want {
		t.Errorf("MinReadings() = %d, want %d", got, want)
	}
}

func TestNewRejectsNoEnabledParams(t *testing.T) {
	opts := DefaultOptions(2)
	opts.PositionEnabled = false
	if _, err := New(opts); err == nil {
		t.Errorf("expected error when no parameter is enabled")
	}
}

func TestEstimateNoiseFreeRssiRecoversSourceParams(t *testing.T) {
	freq := 2.4e9
	truePos := []float64{1, 2}
	truePte := -10.0
	trueN := 2.5
	src := mustSource(t, "aa:bb:cc:dd:ee:ff", freq)

	receiverPositions := [][]float64{
		{0, 0}, {10, 0}, {0, 10}, {10, 10}, {5, -5}, {-5, 5},
	}

	var samples []Sample
	for _, rp := range receiverPositions {
		d := math.Hypot(truePos[0]-rp[0], truePos[1]-rp[1])
		pr, err := propagation.ForwardDbm(d, truePte, trueN, freq)
		if err != nil {
			t.Fatalf("ForwardDbm: %v", err)
		}
		reading, err := radioio.NewRSSI(src, pr, nil)
		if err != nil {
			t.Fatalf("NewRSSI: %v", err)
		}
		other := radioio.MustPoint(rp[0], rp[1])
		samples = append(samples, Sample{Other: other, Reading: reading})
	}

	opts := DefaultOptions(2)
	opts.PositionEnabled = true
	opts.PteEnabled = true
	opts.NEnabled = true

	est, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := est.SetSamples(samples); err != nil {
		t.Fatalf("SetSamples: %v", err)
	}
	if !est.IsReady() {
		t.Fatalf("estimator should be ready with %d samples (min %d)", len(samples), opts.MinReadings())
	}

	result, err := est.Estimate(context.Background())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	if math.Abs(result.Position.At(0)-truePos[0]) > 1e-3 || math.Abs(result.Position.At(1)-truePos[1]) > 1e-3 {
		t.Errorf("Position = %v, want ~%v", result.Position, truePos)
	}
	if math.Abs(result.PteDbm-truePte) > 0.1 {
		t.Errorf("PteDbm = %v, want ~%v", result.PteDbm, truePte)
	}
	if math.Abs(result.N-trueN) > 0.1 {
		t.Errorf("N = %v, want ~%v", result.N, trueN)
	}
}

func TestChiSquaredThresholdRejectsOutlierSample(t *testing.T) {
	freq := 2.4e9
	truePos := []float64{1, 2}
	truePte := -10.0
	trueN := 2.5
	src := mustSource(t, "aa:bb:cc:dd:ee:ff", freq)

	receiverPositions := [][]float64{
		{0, 0}, {10, 0}, {0, 10}, {10, 10}, {5, -5}, {-5, 5},
	}

	var samples []Sample
	for _, rp := range receiverPositions {
		d := math.Hypot(truePos[0]-rp[0], truePos[1]-rp[1])
		pr, err := propagation.ForwardDbm(d, truePte, trueN, freq)
		if err != nil {
			t.Fatalf("ForwardDbm: %v", err)
		}
		reading, err := radioio.NewRSSI(src, pr, nil)
		if err != nil {
			t.Fatalf("NewRSSI: %v", err)
		}
		samples = append(samples, Sample{Other: radioio.MustPoint(rp[0], rp[1]), Reading: reading})
	}

	// A grossly wrong reading, far outside any plausible residual once
	// the fit is anywhere near the truth.
	outlierReading, err := radioio.NewRSSI(src, -95, nil)
	if err != nil {
		t.Fatalf("NewRSSI: %v", err)
	}
	samples = append(samples, Sample{Other: radioio.MustPoint(20, 20), Reading: outlierReading})

	opts := DefaultOptions(2)
	opts.PositionEnabled = true
	opts.PteEnabled = true
	opts.NEnabled = true
	opts.ChiSquaredThreshold = 9.0 // ~3 sigma

	est, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := est.SetSamples(samples); err != nil {
		t.Fatalf("SetSamples: %v", err)
	}

	result, err := est.Estimate(context.Background())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	if math.Abs(result.Position.At(0)-truePos[0]) > 0.5 || math.Abs(result.Position.At(1)-truePos[1]) > 0.5 {
		t.Errorf("Position = %v, want ~%v (outlier should have been rejected)", result.Position, truePos)
	}
}

func TestEstimateNotReadyBelowMinReadings(t *testing.T) {
	opts := DefaultOptions(2)
	opts.PositionEnabled = true

	est, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := mustSource(t, "aa:bb:cc:dd:ee:ff", 2.4e9)
	reading, _ := radioio.NewRSSI(src, -50, nil)
	// min readings for position-only 2D is 3; give only 2.
	samples := []Sample{
		{Other: radioio.MustPoint(0, 0), Reading: reading},
		{Other: radioio.MustPoint(1, 1), Reading: reading},
	}
	_ = est.SetSamples(samples)

	if _, err := est.Estimate(context.Background()); err == nil {
		t.Errorf("expected NotReady error below min readings")
	}
}

func TestEstimateCancellation(t *testing.T) {
	opts := DefaultOptions(2)
	opts.PositionEnabled = true
	opts.PteEnabled = true
	opts.NEnabled = true

	est, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := mustSource(t, "aa:bb:cc:dd:ee:ff", 2.4e9)
	var samples []Sample
	for _, rp := range [][2]float64{{0, 0}, {10, 0}, {0, 10}, {10, 10}, {5, 5}} {
		reading, _ := radioio.NewRSSI(src, -50, nil)
		samples = append(samples, Sample{Other: radioio.MustPoint(rp[0], rp[1]), Reading: reading})
	}
	_ = est.SetSamples(samples)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := est.Estimate(ctx); err == nil {
		t.Errorf("expected Cancelled error")
	}
}

func TestEstimateTwiceIsIdempotent(t *testing.T) {
	freq := 2.4e9
	src := mustSource(t, "aa:bb:cc:dd:ee:ff", freq)
	truePos := []float64{2, 3}
	truePte := -5.0
	trueN := 2.0

	var samples []Sample
	for _, rp := range [][2]float64{{0, 0}, {10, 0}, {0, 10}, {10, 10}, {5, 5}} {
		d := math.Hypot(truePos[0]-rp[0], truePos[1]-rp[1])
		pr, _ := propagation.ForwardDbm(d, truePte, trueN, freq)
		reading, _ := radioio.NewRSSI(src, pr, nil)
		samples = append(samples, Sample{Other: radioio.MustPoint(rp[0], rp[1]), Reading: reading})
	}

	opts := DefaultOptions(2)
	opts.PositionEnabled = true
	opts.PteEnabled = true
	opts.NEnabled = true
	est, _ := New(opts)
	_ = est.SetSamples(samples)

	r1, err := est.Estimate(context.Background())
	if err != nil {
		t.Fatalf("first Estimate: %v", err)
	}
	r2, err := est.Estimate(context.Background())
	if err != nil {
		t.Fatalf("second Estimate: %v", err)
	}

	if r1.Position.At(0) != r2.Position.At(0) || r1.Position.At(1) != r2.Position.At(1) {
		t.Errorf("Estimate() is not idempotent: %v vs %v", r1.Position, r2.Position)
	}
}
