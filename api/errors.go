package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"think41-chat/chat"
)

// respondError maps service errors onto HTTP responses. Anything unexpected is
// logged and reported as a generic 500.
func (s *HttpServer) respondError(c *gin.Context, err error) {
	var validErr *chat.ValidationError
	switch {
	case errors.As(err, &validErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validErr.Message, Field: validErr.Field})
	case chat.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "resource not found"})
	default:
		_ = c.Error(err)
		zl := s.log.Zerolog()
		zl.Error().
			Err(err).
			Str("request_id", RequestIDFromContext(c)).
			Msg("unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Field: field})
}
