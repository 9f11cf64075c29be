package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dinneconnect/auth-service/internal/errs"
	"github.com/dinneconnect/auth-service/internal/token"
)

// classify translates the full error taxonomy into a transport status and a
// stable machine-readable kind. This is the single place allowed to do so.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, token.ErrExpired):
		return http.StatusUnauthorized, "expired"
	case errors.Is(err, token.ErrBadSignature):
		return http.StatusUnauthorized, "bad_signature"
	case errors.Is(err, token.ErrUnsupported):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, token.ErrMalformed):
		return http.StatusBadRequest, "malformed"
	case errors.Is(err, token.ErrEmpty):
		return http.StatusBadRequest, "empty_token"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, "duplicate_unique_field"
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "invalid_credential"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, errs.ErrNoChanges):
		return http.StatusBadRequest, "no_changes"
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, "validation_failure"
	case errors.Is(err, errs.ErrPersistence):
		return http.StatusInternalServerError, "persistence_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, errorResponse{Kind: kind, Message: err.Error()})
}

func (s *Server) abortError(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Kind: kind, Message: err.Error()})
}
