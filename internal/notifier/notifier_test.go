package notifier

import (
	"strings"
	"testing"

	"cold-backend/internal/models"
)

func TestRenderDigestSMS_Empty(t *testing.T) {
	got := renderDigestSMS(nil)
	want := "Out-of-stock digest: no open shortages."
	if got != want {
		t.Errorf("renderDigestSMS(nil) = %q, want %q", got, want)
	}
}

func TestRenderDigestSMS_LeadsWithTopSKU(t *testing.T) {
	aggregated := []*models.AggregatedException{
		{SKU: "SKU-1", TotalShort: 12},
		{SKU: "SKU-2", TotalShort: 3},
	}
	got := renderDigestSMS(aggregated)
	if !strings.Contains(got, "2 sku(s)") {
		t.Errorf("renderDigestSMS() = %q, want it to mention the SKU count", got)
	}
	if !strings.Contains(got, "SKU-1") || !strings.Contains(got, "12") {
		t.Errorf("renderDigestSMS() = %q, want it to lead with the first entry", got)
	}
}

func TestRenderDigestBody_ListsEveryEntry(t *testing.T) {
	aggregated := []*models.AggregatedException{
		{SKU: "SKU-1", ProductTitle: "Widget", TotalShort: 5, Occurrences: 2, OrderNumbers: []string{"ORD-1", "ORD-2"}},
		{SKU: "SKU-2", ProductTitle: "Gadget", TotalShort: 1, Occurrences: 1, OrderNumbers: []string{"ORD-3"}},
	}
	got := renderDigestBody(aggregated)
	for _, want := range []string{"SKU-1", "Widget", "ORD-1", "ORD-2", "SKU-2", "Gadget", "ORD-3"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderDigestBody() missing %q in:\n%s", want, got)
		}
	}
}
