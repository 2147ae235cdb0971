package httpmiddleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig controls the headers CORS writes.
type CORSConfig struct {
	// AllowOrigin is sent verbatim; empty reflects the request Origin (or "*").
	AllowOrigin      string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           string
	// PreflightStatus answers OPTIONS requests; defaults to 204.
	PreflightStatus int
}

// APICORS is the policy for the dashboard API.
var APICORS = CORSConfig{
	AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
	AllowCredentials: true,
	MaxAge:           "86400",
}

// FunctionCORS is the policy for the completion proxy functions.
var FunctionCORS = CORSConfig{
	AllowOrigin:     "*",
	AllowHeaders:    []string{"authorization", "x-client-info", "apikey", "content-type"},
	PreflightStatus: http.StatusOK,
}

// CORS writes cross-origin headers on every response and short-circuits preflight requests
// with an empty body.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	preflight := cfg.PreflightStatus
	if preflight == 0 {
		preflight = http.StatusNoContent
	}

	return func(c *gin.Context) {
		origin := cfg.AllowOrigin
		if origin == "" {
			origin = c.Request.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
		}

		c.Header("Access-Control-Allow-Origin", origin)
		if headers != "" {
			c.Header("Access-Control-Allow-Headers", headers)
		}
		if methods != "" {
			c.Header("Access-Control-Allow-Methods", methods)
		}
		if cfg.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if cfg.MaxAge != "" {
			c.Header("Access-Control-Max-Age", cfg.MaxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(preflight)
			return
		}

		c.Next()
	}
}

// SecurityHeaders sets conservative browser security headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
