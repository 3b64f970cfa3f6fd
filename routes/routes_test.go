package routes

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"quill/auth"
	"quill/handlers"
	"quill/storage"
)

func setupRouter(t *testing.T) (*gin.Engine, *storage.Disk) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	disk, err := storage.NewDisk(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	tokens := auth.NewTokenService("test-secret")
	handlers.Configure(disk, tokens)

	return SetupRouter(tokens, "http://localhost:3000"), disk
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	for _, path := range []string{"/", "/health"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, w.Code)
		}
	}
}

func TestUnknownAPIRouteReturnsJSON404(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := setupRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/posts"},
		{http.MethodPatch, "/api/posts/abc"},
		{http.MethodDelete, "/api/posts/abc"},
		{http.MethodPost, "/api/users/change-avatar"},
		{http.MethodPatch, "/api/users/edit-user"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", tc.method, tc.path, w.Code)
		}
	}
}

func TestServeUpload(t *testing.T) {
	router, disk := setupRouter(t)

	content := []byte("png bytes")
	if err := disk.Save(context.Background(), "pic.png", bytes.NewReader(content), int64(len(content)), "image/png"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/pic.png", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), content) {
		t.Errorf("body = %q, want %q", w.Body.Bytes(), content)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/png") {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
}

func TestServeUploadMissingFile(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/nope.png", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
