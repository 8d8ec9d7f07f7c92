package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestOwnerMiddleware_RequiresHeader(t *testing.T) {
	r := mux.NewRouter()
	r.Use(OwnerMiddleware())
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without owner header, got %d", rec.Code)
	}
}

func TestOwnerMiddleware_InjectsOwner(t *testing.T) {
	var got string
	r := mux.NewRouter()
	r.Use(OwnerMiddleware())
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		got = GetOwnerID(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OwnerHeader, "owner-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got != "owner-42" {
		t.Fatalf("owner id = %q, want owner-42", got)
	}
}

func TestOwnerMiddleware_AllowsOptions(t *testing.T) {
	r := mux.NewRouter()
	r.Use(OwnerMiddleware())
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodOptions)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for OPTIONS, got %d", rec.Code)
	}
}
