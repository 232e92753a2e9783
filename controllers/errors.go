package controllers

import (
	"context"
	"errors"
	"net/http"

	"coursegen/logger"
	"coursegen/services"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUpstreamUnavailable),
		errors.Is(err, services.ErrUnparseableResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error in the {"error": ...} shape. Server-side
// failures get a fixed message; the detail only goes to the log.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	var message string
	switch {
	case status < http.StatusInternalServerError:
		message = err.Error()
	case errors.Is(err, services.ErrUnparseableResponse):
		message = "Failed to parse model output"
	case errors.Is(err, services.ErrUpstreamUnavailable):
		message = "Language model unavailable"
	case errors.Is(err, services.ErrGenerationFailed):
		message = "Failed to generate section content"
	case status == http.StatusGatewayTimeout:
		message = "Generation timed out"
	default:
		message = "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": message})
}
