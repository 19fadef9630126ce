package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteErrorFlattensExtraFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "File exceeds the maximum number of rows", map[string]any{
		"maxRows": 10,
		"error":   "ignored",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "File exceeds the maximum number of rows" || body["maxRows"] != float64(10) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestWriteErrorWithoutExtra(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusUnauthorized, "Unauthorized", nil)
	if rec.Body.String() != "{\"error\":\"Unauthorized\"}\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
