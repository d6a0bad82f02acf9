package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests that carry a non-JSON body. Bodiless
// writes such as PATCH /tasks/:id/complete?completed=true pass through.
func RequireJSON() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if hasBody(ctx.Request) && ctx.ContentType() != gin.MIMEJSON {
			abortWithError(ctx, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
			return
		}
		ctx.Next()
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}
