package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError_MapsKnownKindToStatus(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want int
	}{
		{Unauthorized, http.StatusUnauthorized},
		{Validation, http.StatusBadRequest},
		{InsufficientRemaining, http.StatusConflict},
		{SyncBusy, http.StatusConflict},
		{UpstreamUnavailable, http.StatusBadGateway},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, NewError(c.kind, "boom"))
		if rec.Code != c.want {
			t.Errorf("kind %s: status = %d, want %d", c.kind, rec.Code, c.want)
		}

		var body APIError
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode response body: %v", err)
		}
		if body.Kind != c.kind {
			t.Errorf("kind %s: body.Kind = %s, want %s", c.kind, body.Kind, c.kind)
		}
	}
}

func TestWriteError_NonAPIErrorIsTreatedAsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("some unwrapped failure"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var body APIError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	if body.Kind != Internal {
		t.Errorf("body.Kind = %s, want %s", body.Kind, Internal)
	}
	if body.Message == "some unwrapped failure" {
		t.Error("underlying error message leaked to the client")
	}
}

func TestNewErrorWithDetails_CarriesDetails(t *testing.T) {
	err := NewErrorWithDetails(Validation, "bad input", map[string]string{"field": "sku"})
	if err.Details == nil {
		t.Fatal("expected Details to be set")
	}
}
