// Package bench generates synthetic RF-positioning fixtures and drives
// them through the robust driver with nlls as the inner estimator,
// backing the locator-bench CLI's scenario runner.
package bench

import (
	"math"
	"math/rand"

	"indoor-locator/propagation"
	"indoor-locator/radioio"
)

// SourceFixture is a synthetic "recover a source's position/Pte/n from
// RSSI readings at known receiver positions" scenario, with a known
// ground truth to score the estimate against.
type SourceFixture struct {
	Dim         int
	FrequencyHz float64

	TruePosition radioio.Point
	TruePteDbm   float64
	TrueN        float64

	ReceiverPositions []radioio.Point
	Readings          []radioio.Reading
	IsOutlier         []bool
	// QualityScores biases PROSAC/PROMedS sampling toward presumed-good
	// readings; a bench fixture derives it from a cheap heuristic (here,
	// inverse RSSI magnitude) rather than the (unknown, in production)
	// ground truth inlier flags.
	QualityScores []float64
}

// GenerateSourceFixture builds a fixture with numReadings receiver
// positions scattered around the true source, RSSI generated from the
// log-distance path-loss model plus Gaussian noise, and a fraction of
// readings replaced by gross outliers.
func GenerateSourceFixture(rng *rand.Rand, dim int, numReadings int, outlierFraction float64, frequencyHz float64) (SourceFixture, error) {
	truePos := randomPoint(rng, dim, 10)
	truePte := -20 + rng.Float64()*10
	trueN := 2.0 + rng.Float64()*0.8

	src, err := radioio.NewWiFiAP("ff:ff:ff:ff:ff:ff", frequencyHz)
	if err != nil {
		return SourceFixture{}, err
	}

	fixture := SourceFixture{
		Dim:          dim,
		FrequencyHz:  frequencyHz,
		TruePosition: truePos,
		TruePteDbm:   truePte,
		TrueN:        trueN,
	}

	for i := 0; i < numReadings; i++ {
		rp := randomPoint(rng, dim, 15)
		d := truePos.Distance(rp)

		outlier := rng.Float64() < outlierFraction
		var rssi float64
		if outlier {
			rssi = -100 + rng.Float64()*90 // gross, physically implausible reading
		} else {
			pred, err := propagation.ForwardDbm(d, truePte, trueN, frequencyHz)
			if err != nil {
				return SourceFixture{}, err
			}
			rssi = pred + rng.NormFloat64()*radioio.DefaultRSSIStdDbm
		}

		reading, err := radioio.NewRSSI(src, rssi, nil)
		if err != nil {
			return SourceFixture{}, err
		}

		fixture.ReceiverPositions = append(fixture.ReceiverPositions, rp)
		fixture.Readings = append(fixture.Readings, reading)
		fixture.IsOutlier = append(fixture.IsOutlier, outlier)
		fixture.QualityScores = append(fixture.QualityScores, 1.0/(1.0+math.Abs(rssi)/100.0))
	}

	return fixture, nil
}

func randomPoint(rng *rand.Rand, dim int, span float64) radioio.Point {
	coords := make([]float64, dim)
	for i := range coords {
		coords[i] = (rng.Float64()*2 - 1) * span
	}
	p, _ := radioio.NewPoint(coords...)
	return p
}

