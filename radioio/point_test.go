package radioio

import (
	"math"
	"testing"
)

func TestNewPointDimension(t *testing.T) {
	if _, err := NewPoint(1, 2); err != nil {
		t.Errorf("2D point should be valid: %v", err)
	}
	if _, err := NewPoint(1, 2, 3); err != nil {
		t.Errorf("3D point should be valid: %v", err)
	}
	if _, err := NewPoint(1); err == nil {
		t.Errorf("1D point should be rejected")
	}
	if _, err := NewPoint(1, 2, 3, 4); err == nil {
		t.Errorf("4D point should be rejected")
	}
}

func TestPointDistance(t *testing.T) {
	a := MustPoint(0, 0)
	b := MustPoint(3, 4)

	if got, want := a.Distance(b), 5.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("Distance() = %v, want %v", got, want)
	}
}

func TestPointWithCoordIsCopyOnWrite(t *testing.T) {
	a := MustPoint(1, 2)
	b := a.WithCoord(0, 9)

	if a.At(0) != 1 {
		t.Errorf("original point mutated: At(0) = %v, want 1", a.At(0))
	}
	if b.At(0) != 9 {
		t.Errorf("WithCoord did not update: At(0) = %v, want 9", b.At(0))
	}
}
