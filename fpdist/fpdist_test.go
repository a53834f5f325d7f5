package fpdist

import (
	"math"
	"testing"

	"indoor-locator/radioio"
)

func mustAP(t *testing.T, bssid string) radioio.RadioSource {
	t.Helper()
	s, err := radioio.NewWiFiAP(bssid, 2.4e9)
	if err != nil {
		t.Fatalf("NewWiFiAP: %v", err)
	}
	return s
}

func fingerprintOf(t *testing.T, pairs map[string]float64) radioio.Fingerprint {
	t.Helper()
	var readings []radioio.Reading
	for bssid, rssi := range pairs {
		src := mustAP(t, bssid)
		r, err := radioio.NewRSSI(src, rssi, nil)
		if err != nil {
			t.Fatalf("NewRSSI: %v", err)
		}
		readings = append(readings, r)
	}
	return radioio.NewFingerprint(readings)
}

func TestEuclideanMatchesSpecExample(t *testing.T) {
	a := fingerprintOf(t, map[string]float64{"aa:aa:aa:aa:aa:aa": -50, "bb:bb:bb:bb:bb:bb": -60})
	b := fingerprintOf(t, map[string]float64{"aa:aa:aa:aa:aa:aa": -53, "bb:bb:bb:bb:bb:bb": -64})

	got := Euclidean(a, b)
	want := math.Sqrt(3*3 + 4*4)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Euclidean = %v, want %v", got, want)
	}
}

func TestEuclideanNoOverlapIsInfinite(t *testing.T) {
	a := fingerprintOf(t, map[string]float64{"aa:aa:aa:aa:aa:aa": -50})
	b := fingerprintOf(t, map[string]float64{"bb:bb:bb:bb:bb:bb": -50})
	if !math.IsInf(Euclidean(a, b), 1) {
		t.Errorf("expected +Inf for disjoint fingerprints")
	}
}

func TestMeanRemovedEuclideanRemovesConstantBias(t *testing.T) {
	a := fingerprintOf(t, map[string]float64{"aa:aa:aa:aa:aa:aa": -50, "bb:bb:bb:bb:bb:bb": -60, "cc:cc:cc:cc:cc:cc": -70})
	// b is a uniformly shifted by +10 dB (a hardware gain offset).
	b := fingerprintOf(t, map[string]float64{"aa:aa:aa:aa:aa:aa": -40, "bb:bb:bb:bb:bb:bb": -50, "cc:cc:cc:cc:cc:cc": -60})

	if got := MeanRemovedEuclidean(a, b); got > 1e-9 {
		t.Errorf("MeanRemovedEuclidean = %v, want ~0 after bias removal", got)
	}
	if got := Euclidean(a, b); math.Abs(got-math.Sqrt(300)) > 1e-9 {
		t.Errorf("Euclidean = %v, want sqrt(300) (raw bias not removed)", got)
	}
}
