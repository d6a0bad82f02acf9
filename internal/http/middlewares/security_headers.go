package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// JSON responses never need to load anything.
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// The /docs page pulls Swagger UI from unpkg and boots it inline.
	docsCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; " +
		"connect-src 'self'; img-src 'self' data: https:; font-src 'self' data: https://unpkg.com; " +
		"style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

// SecurityHeaders sets browser hardening headers on every response. HSTS is
// only sent when hsts is true, i.e. the API sits behind TLS.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	static := map[string]string{
		"X-Content-Type-Options":     "nosniff",
		"X-Frame-Options":            "DENY",
		"Referrer-Policy":            "no-referrer",
		"Cross-Origin-Opener-Policy": "same-origin",
	}
	if hsts {
		static["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range static {
			h.Set(k, v)
		}

		if c.Request.URL.Path == "/docs" || strings.HasPrefix(c.Request.URL.Path, "/docs/") {
			h.Set("Content-Security-Policy", docsCSP)
		} else {
			h.Set("Content-Security-Policy", apiCSP)
		}

		c.Next()
	}
}
