package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes payload with a strong ETag over its encoded
// bytes. A matching If-None-Match turns the reply into 304 with no body.
// Responses are per user, so shared caches must not store them.
func RespondJSONWithETag(ctx *gin.Context, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	etag := etagOf(body)
	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "private, no-cache")

	if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", body)
}

func etagOf(body []byte) string {
	sum := sha256.Sum256(body)
	// 16 bytes of the digest is plenty to tell representations apart
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// ifNoneMatchMatches applies weak comparison (RFC 9110 §13.1.2): W/ prefixes
// are ignored on both sides and "*" matches any current representation.
func ifNoneMatchMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" || etag == "" {
		return false
	}
	if header == "*" {
		return true
	}

	want := stripWeak(etag)
	for _, candidate := range strings.Split(header, ",") {
		if stripWeak(candidate) == want {
			return true
		}
	}
	return false
}

func stripWeak(tag string) string {
	tag = strings.TrimSpace(tag)
	return strings.TrimPrefix(tag, "W/")
}
