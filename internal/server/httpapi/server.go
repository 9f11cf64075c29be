// Package httpapi exposes the authentication and account HTTP API.
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dinneconnect/auth-service/internal/config"
	"github.com/dinneconnect/auth-service/internal/service"
	"github.com/dinneconnect/auth-service/internal/token"
)

// Server wires the token service and account directory into HTTP handlers.
type Server struct {
	log    *zap.Logger
	cfg    config.Config
	tokens *token.Service
	dir    service.Directory
}

// New constructs the HTTP server with injected dependencies.
func New(log *zap.Logger, cfg config.Config, tokens *token.Service, dir service.Directory) *Server {
	return &Server{log: log, cfg: cfg, tokens: tokens, dir: dir}
}

// Router builds the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.recovery(), s.logging())
	r.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.HTTP.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	api := r.Group("/api")
	api.POST("/generate-token/", s.handleGenerateToken)
	api.GET("/verify-token/", s.handleVerifyToken)
	api.POST("/post-user/", s.handleRegister)

	user := api.Group("/user")
	user.GET("/", s.requireAuth(), s.handleGetUser)
	user.POST("/primary/", s.requireAuth(), s.handleUpdatePrimary)
	user.POST("/password/", s.requireAuth(), s.handleUpdatePassword)
	user.DELETE("/", s.requireAuth(), s.handleDeleteUser)
	if s.cfg.ExposeTestListing {
		user.GET("/all/testing", s.handleListTesting)
	}

	return r
}
