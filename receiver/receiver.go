// Package receiver implements spec §4.7's receiver-side position
// estimators: ranging (or ranging+RSSI) trilateration against known
// sources, and RSSI-fingerprint weighted k-nearest-neighbour matching.
package receiver

import (
	"context"
	"math"

	"indoor-locator/lateration"
	"indoor-locator/locatorerr"
	"indoor-locator/propagation"
	"indoor-locator/radioio"
)

// SourceReading pairs a known (located) source with one reading against
// it, the unit of input to RangingEstimator.
type SourceReading struct {
	SourcePosition radioio.Point
	Reading        radioio.Reading
	PteDbm         float64 // only used for RSSI-derived distance
	N              float64 // only used for RSSI-derived distance
	FrequencyHz    float64 // only used for RSSI-derived distance
}

// RangingEstimator locates the receiver from ranging (or ranging+RSSI)
// readings against sources of known position, per spec §4.7: "reduce
// each reading to an effective distance; pass to C4."
type RangingEstimator struct {
	inner *lateration.Estimator
	dim   int
}

func NewRangingEstimator(dim int) (*RangingEstimator, error) {
	inner, err := lateration.New(dim)
	if err != nil {
		return nil, err
	}
	return &RangingEstimator{inner: inner, dim: dim}, nil
}

// SetReadings reduces every reading to an effective distance and std: a
// ranging channel's distance is used directly; an RSSI-only channel is
// inverted through the log-distance path-loss model using the supplied
// Pte/n/frequency (spec §4.1's InverseDistance).
func (e *RangingEstimator) SetReadings(readings []SourceReading) error {
	const op = "receiver.RangingEstimator.SetReadings"
	anchors := make([]lateration.Anchor, 0, len(readings))
	for _, sr := range readings {
		var dist, std float64
		switch {
		case sr.Reading.HasRanging():
			dist = sr.Reading.Distance
			std = sr.Reading.EffectiveDistanceStd()
		case sr.Reading.HasRSSI():
			d, err := propagation.InverseDistance(sr.Reading.RSSIdBm, sr.PteDbm, sr.N, sr.FrequencyHz)
			if err != nil {
				return locatorerr.New(locatorerr.InvalidArgument, op, err)
			}
			dist = d
			// Propagate the dB-domain RSSI std into a distance std via
			// the inverse-model derivative d(distance)/d(Pr) = -d*ln10/(10n).
			std = d * math.Ln10 / (10 * math.Abs(sr.N)) * sr.Reading.EffectiveRSSIStd()
		default:
			return locatorerr.Newf(locatorerr.InvalidArgument, op, "reading carries neither ranging nor RSSI channel")
		}
		anchors = append(anchors, lateration.Anchor{
			Position: sr.SourcePosition,
			Distance: dist,
			Std:      std,
		})
	}
	return e.inner.SetAnchors(anchors)
}

func (e *RangingEstimator) MinReadings() int { return e.inner.MinReadings() }
func (e *RangingEstimator) IsReady() bool    { return e.inner.IsReady() }

func (e *RangingEstimator) Estimate(ctx context.Context) (*lateration.Result, error) {
	return e.inner.Estimate(ctx)
}
