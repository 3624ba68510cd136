package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the browser UI to call the API from any origin.
func CORS() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", RequestIDHeader}
	cfg.ExposeHeaders = []string{RequestIDHeader, "X-RateLimit-Remaining", "X-RateLimit-Limit"}
	return cors.New(cfg)
}
