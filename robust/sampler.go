package robust

import "math/rand"

// sampler draws subset indices for each robust iteration. Plain RANSAC/MSAC
// and LMedS draw uniformly; PROSAC/PROMedS draw from a progressively
// widening pool of the highest-quality readings (spec §4.6, "quality-biased
// sampling with a positive-probability guarantee for every reading").
type sampler struct {
	rng          *rand.Rand
	n            int
	k            int
	qualityOrder []int // indices sorted by descending quality; nil for uniform sampling
	maxIterations int
}

func newUniformSampler(rng *rand.Rand, n, k int) *sampler {
	return &sampler{rng: rng, n: n, k: k}
}

func newQualitySampler(rng *rand.Rand, n, k int, quality []float64, maxIterations int) *sampler {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// Descending quality sort (stable, ties keep original order).
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && quality[order[j]] > quality[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return &sampler{rng: rng, n: n, k: k, qualityOrder: order, maxIterations: maxIterations}
}

// draw returns k distinct sample indices for the given 0-based iteration.
func (s *sampler) draw(iteration int) []int {
	if s.qualityOrder == nil {
		return uniformSubset(s.rng, s.n, s.k)
	}
	return s.progressiveSubset(iteration)
}

// progressiveSubset implements a simplified PROSAC-style progressive
// growth function: the candidate pool linearly widens from k (the
// best-quality readings only) to n (the full set) over maxIterations,
// guaranteeing every reading is eventually reachable with positive
// probability while still biasing early iterations toward high-quality
// data.
func (s *sampler) progressiveSubset(iteration int) []int {
	pool := s.k
	if s.maxIterations > 0 {
		frac := float64(iteration+1) / float64(s.maxIterations)
		if frac > 1 {
			frac = 1
		}
		pool = s.k + int(frac*float64(s.n-s.k))
	}
	if pool < s.k {
		pool = s.k
	}
	if pool > s.n {
		pool = s.n
	}
	localIdx := uniformSubset(s.rng, pool, s.k)
	out := make([]int, s.k)
	for i, li := range localIdx {
		out[i] = s.qualityOrder[li]
	}
	return out
}

// uniformSubset draws k distinct indices from [0, n) via a partial
// Fisher–Yates shuffle.
func uniformSubset(rng *rand.Rand, n, k int) []int {
	if k > n {
		k = n
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	out := make([]int, k)
	copy(out, perm[:k])
	return out
}
