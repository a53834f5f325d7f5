package radioio

// Fingerprint is an ordered sequence of readings collected at one location.
// Insertion order is preserved but not semantically significant.
type Fingerprint struct {
	Readings []Reading
	Located  *LocatedInfo
}

// NewFingerprint builds a fingerprint from the given readings, preserving
// their order. Duplicate sources are tolerated (spec §3: "tolerated by the
// estimators but degrade the implicit weighting") — no validation here.
func NewFingerprint(readings []Reading) Fingerprint {
	cp := make([]Reading, len(readings))
	copy(cp, readings)
	return Fingerprint{Readings: cp}
}

// WithLocation returns a copy of f augmented with a known position.
func (f Fingerprint) WithLocation(pos Point, cov *SymMatrix) (Fingerprint, error) {
	r, err := Reading{}.WithLocation(pos, cov)
	if err != nil {
		return Fingerprint{}, err
	}
	f.Located = r.Located
	return f, nil
}

// Sources returns the set of source keys present in the fingerprint.
func (f Fingerprint) Sources() map[string]RadioSource {
	out := make(map[string]RadioSource, len(f.Readings))
	for _, r := range f.Readings {
		out[r.Source.Key()] = r.Source
	}
	return out
}

// Find returns the first reading against the given source, if any.
func (f Fingerprint) Find(source RadioSource) (Reading, bool) {
	key := source.Key()
	for _, r := range f.Readings {
		if r.Source.Key() == key {
			return r, true
		}
	}
	return Reading{}, false
}

// RSSI returns the reading's RSSI value against source, if it has one.
func (f Fingerprint) RSSI(source RadioSource) (float64, bool) {
	r, ok := f.Find(source)
	if !ok || !r.HasRSSI() {
		return 0, false
	}
	return r.RSSIdBm, true
}
