package radioio

import (
	"gonum.org/v1/gonum/mat"

	"indoor-locator/locatorerr"
)

// SymMatrix is a dense symmetric D×D covariance matrix. It thinly wraps
// gonum's mat.SymDense so callers outside this module never need to import
// gonum directly to read a covariance off a located Reading/Fingerprint.
type SymMatrix struct {
	dense *mat.SymDense
}

// NewSymMatrix builds a SymMatrix from a row-major flattened D×D slice,
// symmetrizing it is NOT performed — callers must supply a symmetric input,
// validated on construction.
func NewSymMatrix(dim int, data []float64) (*SymMatrix, error) {
	if dim <= 0 || len(data) != dim*dim {
		return nil, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewSymMatrix",
			"need dim*dim=%d entries for dim=%d, got %d", dim*dim, dim, len(data))
	}
	for i := 0; i < dim; i++ {
		for j := i + 1; j < dim; j++ {
			if data[i*dim+j] != data[j*dim+i] {
				return nil, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewSymMatrix", "matrix is not symmetric at (%d,%d)", i, j)
			}
		}
	}
	return &SymMatrix{dense: mat.NewSymDense(dim, data)}, nil
}

// FromGonum wraps an existing *mat.SymDense without copying.
func FromGonum(m *mat.SymDense) *SymMatrix {
	return &SymMatrix{dense: m}
}

// Dense exposes the underlying gonum matrix for packages that perform
// linear algebra (nlls, lateration, robust).
func (s *SymMatrix) Dense() *mat.SymDense {
	return s.dense
}

// Dim returns the matrix's row/column count.
func (s *SymMatrix) Dim() int {
	n, _ := s.dense.Dims()
	return n
}

// At returns the (i,j) entry.
func (s *SymMatrix) At(i, j int) float64 {
	return s.dense.At(i, j)
}

// Trace returns the sum of diagonal entries.
func (s *SymMatrix) Trace() float64 {
	t := 0.0
	for i := 0; i < s.Dim(); i++ {
		t += s.At(i, i)
	}
	return t
}

// IsPSD reports whether the matrix is positive-semidefinite within a
// relative tolerance, via a Cholesky attempt mirroring the check demanded
// by spec §8's testable-property 3.
func (s *SymMatrix) IsPSD(relTol float64) bool {
	n := s.Dim()
	if n == 0 {
		return true
	}
	var chol mat.Cholesky
	ok := chol.Factorize(s.dense)
	if ok {
		return true
	}
	// Borderline PSD (e.g. a near-zero eigenvalue rounding negative):
	// fall back to an eigen-decomposition check against relTol * scale.
	var eig mat.EigenSym
	if !eig.Factorize(s.dense, false) {
		return false
	}
	values := eig.Values(nil)
	scale := 0.0
	for _, v := range values {
		if v > scale {
			scale = v
		}
	}
	for _, v := range values {
		if v < -relTol*(scale+1) {
			return false
		}
	}
	return true
}
