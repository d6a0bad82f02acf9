package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: middlewares.RequestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, string(apperr.KindValidation), message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, string(apperr.KindUnauthorized), message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, string(apperr.KindInternal), message, nil)
}

// RespondAppError renders err by its kind. Internal errors are logged with
// their cause and answered with a fixed message.
func RespondAppError(ctx *gin.Context, err error) {
	kind := apperr.KindOf(err)

	if kind == apperr.KindInternal {
		_ = ctx.Error(err)
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"err", err,
			"route", ctx.FullPath(),
		)
		RespondInternal(ctx, "Something went wrong. Please try again.")
		return
	}

	var ae *apperr.Error
	errors.As(err, &ae)

	var details interface{}
	if ae.Field != "" {
		details = gin.H{"field": ae.Field}
	}

	RespondError(ctx, kind.HTTPStatus(), string(kind), ae.Message, details)
}
