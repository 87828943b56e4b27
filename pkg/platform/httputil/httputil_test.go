package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "custodia/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("conflict includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeConflict, "treasury is frozen"))

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "conflict" {
			t.Fatalf("expected error code conflict, got %q", body["error"])
		}
		if body["error_description"] != "treasury is frozen" {
			t.Fatalf("expected error_description to be returned for conflicts")
		}
	})

	t.Run("uncoded errors fail closed", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, json.Unmarshal([]byte("{"), &struct{}{}))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestDecode(t *testing.T) {
	type payload struct {
		Amount int64 `json:"amount"`
	}

	t.Run("valid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":42}`))

		got, ok := Decode[payload](w, r)
		if !ok {
			t.Fatal("expected decode to succeed")
		}
		if got.Amount != 42 {
			t.Fatalf("expected amount 42, got %d", got.Amount)
		}
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":42,"bogus":true}`))

		if _, ok := Decode[payload](w, r); ok {
			t.Fatal("expected decode to fail on unknown fields")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))

		if _, ok := Decode[payload](w, r); ok {
			t.Fatal("expected decode to fail on malformed body")
		}
	})
}
