package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/accumulation-tracker-backend/internal/api/middleware"
)

// TestValidateUUIDMiddleware verifies validation of the {uuid} route parameter.
func TestValidateUUIDMiddleware(t *testing.T) {
	newRouter := func(called *bool) http.Handler {
		r := chi.NewRouter()
		r.With(middleware.ValidateUUIDMiddleware).Get("/runs/{uuid}", func(w http.ResponseWriter, _ *http.Request) {
			*called = true
			w.WriteHeader(http.StatusOK)
		})
		return r
	}

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCalled bool
	}{
		{"passes through valid UUID", "/runs/550e8400-e29b-41d4-a716-446655440000", http.StatusOK, true},
		{"returns 400 for invalid UUID", "/runs/invalid-id", http.StatusBadRequest, false},
		{"returns 400 for truncated UUID", "/runs/550e8400-e29b-41d4", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			w := httptest.NewRecorder()
			newRouter(&called).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
			if called != tt.wantCalled {
				t.Errorf("Handler called = %v, want %v", called, tt.wantCalled)
			}
		})
	}

	t.Run("returns 400 for empty UUID", func(t *testing.T) {
		called := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			called = true
		})

		w := httptest.NewRecorder()
		middleware.ValidateUUIDMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/", nil))

		if called {
			t.Error("Expected next handler NOT to be called")
		}
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}
