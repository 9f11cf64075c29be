package httpapi

import (
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/dinneconnect/auth-service/internal/token"
)

const ctxAccountID = "auth.accountID"

// bearerPrefix must match exactly, case-sensitively. Any other scheme is an
// unsupported format, not a missing token.
const bearerPrefix = "Bearer "

// bearerToken extracts the raw token from an Authorization header value.
func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", token.ErrEmpty
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", token.ErrUnsupported
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" {
		return "", token.ErrEmpty
	}
	return raw, nil
}

// accountIDFromCtx fetches the authenticated account ID set by requireAuth.
func accountIDFromCtx(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxAccountID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// requireAuth is the session gate: it extracts the bearer credential,
// verifies it and stores the subject account ID in the request context.
// Every verification failure maps to a distinct status.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			s.abortError(c, err)
			return
		}
		claims, err := s.tokens.Verify(raw)
		if err != nil {
			s.abortError(c, err)
			return
		}
		id, err := token.Subject(claims)
		if err != nil {
			s.abortError(c, err)
			return
		}
		c.Set(ctxAccountID, id)
		c.Next()
	}
}

// logging emits one structured line per request: metadata only, no payloads.
func (s *Server) logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", c.ClientIP()),
		)
	}
}

// recovery converts panics into structured 500 responses.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(500, errorResponse{Kind: "internal", Message: "internal error"})
			}
		}()
		c.Next()
	}
}
