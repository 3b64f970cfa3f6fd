package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"quill/auth"
	"quill/handlers"
	"quill/middleware"
)

// SetupRouter wires middleware and all API routes.
func SetupRouter(tokens *auth.TokenService, clientOrigin string) *gin.Engine {
	router := gin.Default()

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "Quill API running", "service": "healthy"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{clientOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Stored blobs, read-only.
	router.GET("/uploads/:filename", handlers.ServeUpload)

	api := router.Group("/api")
	api.Use(middleware.RateLimit(rate.Limit(2), 60))

	// Public routes
	api.POST("/users/register", handlers.Register)
	api.POST("/users/login", handlers.Login)
	api.GET("/users/authors", handlers.GetAuthors)
	api.GET("/users/:id", handlers.GetUser)
	api.GET("/posts", handlers.GetPosts)
	api.GET("/posts/:id", handlers.GetPost)
	api.GET("/posts/categories/:category", handlers.GetCatPosts)
	api.GET("/posts/users/:id", handlers.GetUserPosts)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.RequireAuth(tokens))

	protected.POST("/users/change-avatar", handlers.ChangeAvatar)
	protected.PATCH("/users/edit-user", handlers.EditUser)
	protected.POST("/posts", handlers.CreatePost)
	protected.PATCH("/posts/:id", handlers.EditPost)
	protected.DELETE("/posts/:id", handlers.DeletePost)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
