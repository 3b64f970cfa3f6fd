package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"quill/auth"
	"quill/database"
	"quill/storage"
)

// Validation paths are exercised directly; flows that reach MongoDB run
// against mtest's mock deployment with the package collections pointed at
// the mock database.

var testIdentity = auth.Identity{ID: primitive.NewObjectID(), Name: "Ann"}

func setupHandlers(t *testing.T) *storage.Disk {
	t.Helper()
	gin.SetMode(gin.TestMode)

	disk, err := storage.NewDisk(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	Configure(disk, auth.NewTokenService("test-secret"))
	return disk
}

// useMockDatabase points the package collections at the mock deployment.
func useMockDatabase(mt *mtest.T) {
	database.Users = mt.DB.Collection("users")
	database.Posts = mt.DB.Collection("posts")
}

// withIdentity stands in for the auth middleware.
func withIdentity(ident auth.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("identity", ident)
		c.Next()
	}
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a multipart body with the given text fields and,
// when fileField is non-empty, one file of fileSize bytes.
func multipartRequest(t *testing.T, method, path string, fields map[string]string, fileField, fileName string, fileSize int) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(bytes.Repeat([]byte("x"), fileSize)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
