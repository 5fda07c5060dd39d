package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, env *Env) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{env.Cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	limiter := NewIPRateLimiter(rate.Limit(env.Cfg.RateLimits.AuthRPS), env.Cfg.RateLimits.AuthBurst)
	go limiter.Janitor(10 * time.Minute)

	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	api := router.Group("/api")
	{
		api.POST("/register", RateLimitMiddleware(limiter), env.Register)
		api.POST("/login", RateLimitMiddleware(limiter), env.Login)
		api.POST("/google-login", RateLimitMiddleware(limiter), env.GoogleLogin)
		api.POST("/setup-admin", RateLimitMiddleware(limiter), env.SetupAdmin)

		api.GET("/posts", OptionalAuth(env.Tokens), env.GetFeed)
		api.GET("/posts/mine", RequireAuth(env.Tokens), env.GetMyPosts)
		api.GET("/posts/:id", OptionalAuth(env.Tokens), env.GetPost)
		api.POST("/posts", RequireAuth(env.Tokens), env.CreatePost)
		api.PUT("/posts/:id", RequireAuth(env.Tokens), env.UpdatePost)
		api.DELETE("/posts/:id", RequireAuth(env.Tokens), env.DeletePost)
		api.PUT("/posts/:id/react", RequireAuth(env.Tokens), env.ToggleReaction)
		api.POST("/posts/:id/comment", RequireAuth(env.Tokens), env.AddComment)
		api.DELETE("/posts/:id/comment/:commentId", RequireAuth(env.Tokens), env.DeleteComment)
	}
}
