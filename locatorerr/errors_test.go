package locatorerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := New(NumericalFailure, "nlls.Estimate", cause)

	want := "nlls.Estimate: NumericalFailure: boom"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsUnwrapsChain(t *testing.T) {
	inner := New(NotReady, "robust.Estimate", errors.New("too few readings"))
	outer := fmt.Errorf("wrapped: %w", inner)

	if !Is(outer, NotReady) {
		t.Errorf("Is(outer, NotReady) = false, want true")
	}
	if Is(outer, Locked) {
		t.Errorf("Is(outer, Locked) = true, want false")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		InvalidArgument:  "InvalidArgument",
		NotReady:         "NotReady",
		Locked:           "Locked",
		NumericalFailure: "NumericalFailure",
		RobustFailure:    "RobustFailure",
		Cancelled:        "Cancelled",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
