package receiver

import (
	"sort"

	"indoor-locator/fpdist"
	"indoor-locator/locatorerr"
	"indoor-locator/radioio"
)

// DefaultKNNEpsilon is the minimum RSSI distance used in weighting, per
// spec §6: "Minimum distance is clamped to ε (default 1e-7) to prevent
// blow-up."
const DefaultKNNEpsilon = 1e-7

// FingerprintMatcher implements spec §4.7's RSSI-fingerprint weighted
// k-nearest-neighbour position estimate: pick the k located fingerprints
// with smallest RSSI distance to the query, return the ε-clamped
// inverse-distance-weighted average of their positions.
type FingerprintMatcher struct {
	database []radioio.Fingerprint
	metric   func(a, b radioio.Fingerprint) float64
	epsilon  float64
}

// FingerprintMatcherOption configures a FingerprintMatcher at construction.
type FingerprintMatcherOption func(*FingerprintMatcher)

// WithMetric overrides the default fpdist.Euclidean distance, e.g. with
// fpdist.MeanRemovedEuclidean.
func WithMetric(metric func(a, b radioio.Fingerprint) float64) FingerprintMatcherOption {
	return func(m *FingerprintMatcher) { m.metric = metric }
}

// WithEpsilon overrides DefaultKNNEpsilon.
func WithEpsilon(epsilon float64) FingerprintMatcherOption {
	return func(m *FingerprintMatcher) { m.epsilon = epsilon }
}

// NewFingerprintMatcher builds a matcher over a database of located
// fingerprints (every entry must carry a Located position).
func NewFingerprintMatcher(database []radioio.Fingerprint, opts ...FingerprintMatcherOption) (*FingerprintMatcher, error) {
	const op = "receiver.NewFingerprintMatcher"
	for i, fp := range database {
		if fp.Located == nil {
			return nil, locatorerr.Newf(locatorerr.InvalidArgument, op, "database entry %d has no known location", i)
		}
	}
	cp := make([]radioio.Fingerprint, len(database))
	copy(cp, database)
	m := &FingerprintMatcher{database: cp, metric: fpdist.Euclidean, epsilon: DefaultKNNEpsilon}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Match returns the weighted k-NN position estimate for query against the
// k closest database fingerprints (spec §4.7). k = 1 returns the lone
// neighbour's position directly, bypassing weighting.
func (m *FingerprintMatcher) Match(query radioio.Fingerprint, k int) (radioio.Point, error) {
	const op = "receiver.FingerprintMatcher.Match"
	if k <= 0 {
		return radioio.Point{}, locatorerr.Newf(locatorerr.InvalidArgument, op, "k must be >= 1, got %d", k)
	}
	if len(m.database) == 0 {
		return radioio.Point{}, locatorerr.Newf(locatorerr.NotReady, op, "empty fingerprint database")
	}

	type scored struct {
		fp   radioio.Fingerprint
		dist float64
	}
	scoredAll := make([]scored, len(m.database))
	for i, fp := range m.database {
		scoredAll[i] = scored{fp: fp, dist: m.metric(query, fp)}
	}
	sort.Slice(scoredAll, func(i, j int) bool { return scoredAll[i].dist < scoredAll[j].dist })

	if k > len(scoredAll) {
		k = len(scoredAll)
	}
	neighbours := scoredAll[:k]

	if k == 1 {
		return neighbours[0].fp.Located.Position, nil
	}

	dim := neighbours[0].fp.Located.Position.Dim()
	weightedSum := make([]float64, dim)
	weightSum := 0.0
	for _, nb := range neighbours {
		d := nb.dist
		if d < m.epsilon {
			d = m.epsilon
		}
		w := 1.0 / d
		pos := nb.fp.Located.Position
		for i := 0; i < dim; i++ {
			weightedSum[i] += w * pos.At(i)
		}
		weightSum += w
	}
	if weightSum == 0 {
		return radioio.Point{}, locatorerr.Newf(locatorerr.NumericalFailure, op, "zero total weight across neighbours")
	}
	for i := range weightedSum {
		weightedSum[i] /= weightSum
	}
	return radioio.NewPoint(weightedSum...)
}
