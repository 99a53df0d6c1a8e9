package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"classifieds/handlers"
)

// Deps is everything the router needs, constructed in main and passed down.
type Deps struct {
	Auth     *handlers.AuthHandler
	Posts    *handlers.PostHandler
	Identity gin.HandlerFunc
	Limit    gin.HandlerFunc

	// StaticUploadDir, when non-empty, is served under /uploads for the
	// local image store.
	StaticUploadDir string
}

func Setup(d Deps) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	auth := router.Group("/api/auth")
	auth.Use(d.Limit)
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)

	// Browsing the feed needs no account
	router.GET("/api/posts", d.Posts.List)

	protected := router.Group("/api")
	protected.Use(d.Identity)
	protected.POST("/posts", d.Posts.Create)
	protected.DELETE("/posts/:id", d.Posts.Delete)

	if d.StaticUploadDir != "" {
		router.Static("/uploads", d.StaticUploadDir)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(404, gin.H{
				"success": false,
				"message": "Endpoint not found",
			})
			return
		}
		c.Next()
	})

	return router
}
