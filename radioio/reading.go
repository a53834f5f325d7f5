package radioio

import (
	"indoor-locator/locatorerr"
)

// ReadingKind discriminates the Reading tagged union.
type ReadingKind int

const (
	RangingKind ReadingKind = iota
	RSSIKind
	RangingAndRSSIKind
)

func (k ReadingKind) String() string {
	switch k {
	case RangingKind:
		return "Ranging"
	case RSSIKind:
		return "RSSI"
	case RangingAndRSSIKind:
		return "RangingAndRssi"
	default:
		return "Unknown"
	}
}

// Default effective standard deviations used when a reading does not state
// its own, per spec §4.2.
const (
	DefaultRSSIStdDbm    = 1.0
	DefaultRangingStdM   = 1.0
)

// LocatedInfo augments a Reading or Fingerprint with a known (or
// previously estimated) position and optional covariance.
type LocatedInfo struct {
	Position   Point
	Covariance *SymMatrix // D×D, optional
}

// Reading is one observation against a RadioSource: ranging, RSSI, or both.
type Reading struct {
	Kind   ReadingKind
	Source RadioSource

	Distance    float64
	DistanceStd *float64
	NAttempted  int
	NSuccessful int

	RSSIdBm float64
	RSSIStd *float64

	Located *LocatedInfo
}

// NewRanging builds a ranging-only reading.
func NewRanging(source RadioSource, distance float64, distanceStd *float64, nAttempted, nSuccessful int) (Reading, error) {
	if distance < 0 {
		return Reading{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewRanging", "distance must be >= 0, got %v", distance)
	}
	if distanceStd != nil && *distanceStd <= 0 {
		return Reading{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewRanging", "distanceStd must be > 0 if present, got %v", *distanceStd)
	}
	if nAttempted < 1 {
		return Reading{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewRanging", "nAttempted must be >= 1, got %d", nAttempted)
	}
	if nSuccessful < 0 || nSuccessful > nAttempted {
		return Reading{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewRanging", "nSuccessful must be in [0, nAttempted], got %d/%d", nSuccessful, nAttempted)
	}
	return Reading{
		Kind:        RangingKind,
		Source:      source,
		Distance:    distance,
		DistanceStd: distanceStd,
		NAttempted:  nAttempted,
		NSuccessful: nSuccessful,
	}, nil
}

// NewRSSI builds an RSSI-only reading.
func NewRSSI(source RadioSource, rssiDbm float64, rssiStd *float64) (Reading, error) {
	if rssiStd != nil && *rssiStd <= 0 {
		return Reading{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewRSSI", "rssiStd must be > 0 if present, got %v", *rssiStd)
	}
	return Reading{
		Kind:    RSSIKind,
		Source:  source,
		RSSIdBm: rssiDbm,
		RSSIStd: rssiStd,
	}, nil
}

// NewRangingAndRSSI builds a reading carrying both ranging and RSSI
// channels against the same source.
func NewRangingAndRSSI(source RadioSource, distance float64, distanceStd *float64, nAttempted, nSuccessful int, rssiDbm float64, rssiStd *float64) (Reading, error) {
	r, err := NewRanging(source, distance, distanceStd, nAttempted, nSuccessful)
	if err != nil {
		return Reading{}, err
	}
	if rssiStd != nil && *rssiStd <= 0 {
		return Reading{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewRangingAndRSSI", "rssiStd must be > 0 if present, got %v", *rssiStd)
	}
	r.Kind = RangingAndRSSIKind
	r.RSSIdBm = rssiDbm
	r.RSSIStd = rssiStd
	return r, nil
}

// WithLocation returns a copy of r augmented with a known position and
// optional covariance, validating the covariance's dimension against pos.
func (r Reading) WithLocation(pos Point, cov *SymMatrix) (Reading, error) {
	if cov != nil && cov.Dim() != pos.Dim() {
		return Reading{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.Reading.WithLocation",
			"covariance dimension %d does not match position dimension %d", cov.Dim(), pos.Dim())
	}
	r.Located = &LocatedInfo{Position: pos, Covariance: cov}
	return r, nil
}

// EffectiveDistanceStd returns the reading's distance standard deviation,
// falling back to DefaultRangingStdM when unspecified.
func (r Reading) EffectiveDistanceStd() float64 {
	if r.DistanceStd != nil {
		return *r.DistanceStd
	}
	return DefaultRangingStdM
}

// EffectiveRSSIStd returns the reading's RSSI standard deviation, falling
// back to DefaultRSSIStdDbm when unspecified.
func (r Reading) EffectiveRSSIStd() float64 {
	if r.RSSIStd != nil {
		return *r.RSSIStd
	}
	return DefaultRSSIStdDbm
}

// HasRanging reports whether r carries a ranging channel.
func (r Reading) HasRanging() bool {
	return r.Kind == RangingKind || r.Kind == RangingAndRSSIKind
}

// HasRSSI reports whether r carries an RSSI channel.
func (r Reading) HasRSSI() bool {
	return r.Kind == RSSIKind || r.Kind == RangingAndRSSIKind
}
