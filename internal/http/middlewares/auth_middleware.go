package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth resolves the caller from the bearer token. Nothing behind it
// runs without an owner id.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			abortWithError(c, http.StatusUnauthorized, string(apperr.KindUnauthorized), "Missing or invalid Authorization header")
			return
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, string(apperr.KindUnauthorized), "Missing or invalid access token")
			return
		}

		userID, err := m.jwt.Verify(raw)
		if err != nil {
			if apperr.IsKind(err, apperr.KindTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, string(apperr.KindTokenExpired), "Access token expired")
				return
			}
			abortWithError(c, http.StatusUnauthorized, string(apperr.KindUnauthorized), "Invalid access token")
			return
		}
		if userID == "" {
			abortWithError(c, http.StatusUnauthorized, string(apperr.KindUnauthorized), "Invalid access token")
			return
		}

		c.Set(CtxUserID, userID)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), userID))

		c.Next()
	}
}

// UserIDFromContext returns the id RequireAuth stored.
func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
