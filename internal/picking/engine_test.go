package picking

import (
	"context"
	"testing"

	"cold-backend/pkg/utils"
)

// Pick and MarkShort validate their arguments before touching the database, so both
// reject malformed input on a zero-value Engine without needing a live pool.

func TestPick_RejectsNonPositiveQty(t *testing.T) {
	e := &Engine{}
	cases := []int{0, -1, -100}
	for _, qty := range cases {
		_, err := e.Pick(context.Background(), "SKU-1", qty, "operator")
		if err == nil {
			t.Fatalf("Pick(qty=%d) = nil error, want Validation error", qty)
		}
		apiErr, ok := err.(*utils.APIError)
		if !ok || apiErr.Kind != utils.Validation {
			t.Fatalf("Pick(qty=%d) = %v, want a Validation APIError", qty, err)
		}
	}
}

func TestMarkShort_RejectsEmptyAllocations(t *testing.T) {
	e := &Engine{}
	_, err := e.MarkShort(context.Background(), "SKU-1", nil, "operator")
	if err == nil {
		t.Fatal("MarkShort(nil allocations) = nil error, want Validation error")
	}
	apiErr, ok := err.(*utils.APIError)
	if !ok || apiErr.Kind != utils.Validation {
		t.Fatalf("MarkShort(nil allocations) = %v, want a Validation APIError", err)
	}
}
