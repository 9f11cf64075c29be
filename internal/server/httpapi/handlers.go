package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dinneconnect/auth-service/internal/errs"
	"github.com/dinneconnect/auth-service/internal/model"
)

// handleGenerateToken authenticates by username or email and issues a token.
// Bad credentials are a 400 here, not a 401: the caller holds no session yet.
func (s *Server) handleGenerateToken(c *gin.Context) {
	var req generateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errs.ErrValidation)
		return
	}
	if req.UsernameOrEmail == "" || req.Credential == "" {
		s.writeError(c, errs.ErrValidation)
		return
	}

	acc, err := s.dir.Authenticate(c.Request.Context(), req.UsernameOrEmail, req.Credential, c.ClientIP())
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			c.JSON(http.StatusBadRequest, errorResponse{Kind: "invalid_credential", Message: "bad credentials"})
			return
		}
		s.writeError(c, err)
		return
	}

	signed, exp, err := s.tokens.Issue(acc.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: signed, Expiry: exp})
}

// handleVerifyToken verifies the presented bearer token and echoes its claims.
func (s *Server) handleVerifyToken(c *gin.Context) {
	raw, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp := claimsResponse{Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	c.JSON(http.StatusOK, resp)
}

// handleRegister creates a new account.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errs.ErrValidation)
		return
	}
	acc, err := s.dir.Create(c.Request.Context(), model.NewAccountInput{
		Name:       req.Name,
		Surname:    req.Surname,
		Username:   req.Username,
		Email:      req.Email,
		Credential: req.Credential,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProfile(acc))
}

// handleGetUser returns the authenticated account's profile.
func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := accountIDFromCtx(c)
	if !ok {
		s.writeError(c, errs.ErrUnauthorized)
		return
	}
	acc, err := s.dir.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(acc))
}

// handleUpdatePrimary merges the non-null profile fields of the request.
// An empty body is a no-op rejected distinctly from a missing account.
func (s *Server) handleUpdatePrimary(c *gin.Context) {
	id, ok := accountIDFromCtx(c)
	if !ok {
		s.writeError(c, errs.ErrUnauthorized)
		return
	}
	var req primaryInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errs.ErrValidation)
		return
	}
	acc, err := s.dir.UpdatePrimaryInfo(c.Request.Context(), id, model.AccountPatch{
		Name:     req.Name,
		Surname:  req.Surname,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(acc))
}

// handleUpdatePassword replaces the account credential.
func (s *Server) handleUpdatePassword(c *gin.Context) {
	id, ok := accountIDFromCtx(c)
	if !ok {
		s.writeError(c, errs.ErrUnauthorized)
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errs.ErrValidation)
		return
	}
	if err := s.dir.UpdateCredential(c.Request.Context(), id, req.NewCredential); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleDeleteUser removes the authenticated account permanently.
func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := accountIDFromCtx(c)
	if !ok {
		s.writeError(c, errs.ErrUnauthorized)
		return
	}
	if err := s.dir.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleListTesting lists every profile without authentication. Registered
// only when the test-listing flag is on; never enable in production.
func (s *Server) handleListTesting(c *gin.Context) {
	c.JSON(http.StatusOK, toProfiles(s.dir.List(c.Request.Context())))
}
