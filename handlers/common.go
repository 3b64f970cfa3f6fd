package handlers

import (
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"quill/auth"
	"quill/middleware"
	"quill/storage"
)

// Dependencies shared across all handler files, wired once from main.
var uploads storage.Uploads
var tokens *auth.TokenService

// Configure sets the blob store and token service used by the handlers.
func Configure(u storage.Uploads, t *auth.TokenService) {
	uploads = u
	tokens = t
}

func abortError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// identity resolves the acting identity attached by the auth middleware and
// 401s if a protected handler somehow ran without it.
func identity(c *gin.Context) (auth.Identity, bool) {
	ident, ok := middleware.Identity(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, "Not authenticated")
	}
	return ident, ok
}

// ServeUpload streams a stored blob back to the client.
func ServeUpload(c *gin.Context) {
	name := c.Param("filename")

	rc, err := uploads.Open(c.Request.Context(), name)
	if err != nil {
		abortError(c, http.StatusNotFound, "File not found")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		log.Printf("ServeUpload: streaming %s failed: %v", name, err)
	}
}
