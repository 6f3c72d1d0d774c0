package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRoot(t *testing.T) {
	r := New(func(ctx context.Context) error { return nil }, t.TempDir(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "vscode-live-themes") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestUpdate(t *testing.T) {
	called := false
	r := New(func(ctx context.Context) error {
		called = true
		return nil
	}, t.TempDir(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/update", nil))

	if !called {
		t.Error("update func not invoked")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Themes updated") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestUpdate_Error(t *testing.T) {
	r := New(func(ctx context.Context) error {
		return errors.New("gallery down")
	}, t.TempDir(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/update", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "gallery down") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestStaticThemes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mostinstalled.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(func(ctx context.Context) error { return nil }, dir, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/themes/mostinstalled.json", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q", w.Body.String())
	}
}
