package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DocsHandler serves the API reference page and the OpenAPI file behind it.
type DocsHandler struct {
	page    []byte
	openapi []byte
}

func NewDocsHandler(page, openapi []byte) *DocsHandler {
	return &DocsHandler{page: page, openapi: openapi}
}

func (h *DocsHandler) Page(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
}

// OpenAPI honours If-None-Match; the document only changes between releases.
func (h *DocsHandler) OpenAPI(ctx *gin.Context) {
	etag := etagOf(h.openapi)
	ctx.Header("ETag", etag)

	if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", h.openapi)
}
