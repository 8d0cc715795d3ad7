package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cold-backend/pkg/utils"
)

func TestItem_UnmarshalJSON_CapturesUnknownFields(t *testing.T) {
	raw := `{
		"sku": "SKU-1",
		"title": "Widget",
		"price": 9.99,
		"warehouse_bin": "A-12",
		"discontinued": false
	}`

	var item Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if item.SKU != "SKU-1" || item.Title != "Widget" {
		t.Errorf("known fields = %+v, want SKU-1/Widget", item)
	}
	if item.Price == nil || *item.Price != 9.99 {
		t.Errorf("Price = %v, want 9.99", item.Price)
	}
	if _, ok := item.Extra["sku"]; ok {
		t.Error("known field \"sku\" leaked into Extra")
	}
	if item.Extra["warehouse_bin"] != "A-12" {
		t.Errorf("Extra[\"warehouse_bin\"] = %v, want A-12", item.Extra["warehouse_bin"])
	}
	if item.Extra["discontinued"] != false {
		t.Errorf("Extra[\"discontinued\"] = %v, want false", item.Extra["discontinued"])
	}
}

func TestItem_UnmarshalJSON_NoExtraFieldsLeavesExtraNil(t *testing.T) {
	var item Item
	if err := json.Unmarshal([]byte(`{"sku":"SKU-1"}`), &item); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if item.Extra != nil {
		t.Errorf("Extra = %v, want nil when every field is known", item.Extra)
	}
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization header = %q, want Bearer test-key", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"categories":[{"name":"Produce","subcategories":[]}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 0)
	doc, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(doc.Categories) != 1 || doc.Categories[0].Name != "Produce" {
		t.Errorf("doc.Categories = %+v, want one Produce category", doc.Categories)
	}
}

func TestClient_Fetch_NonOKStatusIsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down for maintenance"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 0)
	_, err := c.Fetch(context.Background())
	apiErr, ok := err.(*utils.APIError)
	if !ok || apiErr.Kind != utils.UpstreamUnavailable {
		t.Fatalf("err = %v, want an UpstreamUnavailable APIError", err)
	}
}

func TestClient_Fetch_MalformedBodyIsUpstreamMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 0)
	_, err := c.Fetch(context.Background())
	apiErr, ok := err.(*utils.APIError)
	if !ok || apiErr.Kind != utils.UpstreamMalformed {
		t.Fatalf("err = %v, want an UpstreamMalformed APIError", err)
	}
}

func TestClient_Fetch_MissingCategoriesIsUpstreamMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 0)
	_, err := c.Fetch(context.Background())
	apiErr, ok := err.(*utils.APIError)
	if !ok || apiErr.Kind != utils.UpstreamMalformed {
		t.Fatalf("err = %v, want an UpstreamMalformed APIError", err)
	}
}
