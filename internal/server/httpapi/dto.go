package httpapi

import (
	"time"

	"github.com/dinneconnect/auth-service/internal/model"
)

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type generateTokenRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Credential      string `json:"credential"`
}

type tokenResponse struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

type claimsResponse struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Issuer    string `json:"iss"`
}

type registerRequest struct {
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

type primaryInfoRequest struct {
	Name     *string `json:"name"`
	Surname  *string `json:"surname"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type passwordRequest struct {
	NewCredential string `json:"new_credential"`
}

// profileResponse is the externally visible account view. The credential is
// never serialized.
type profileResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Surname              string    `json:"surname"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	CreatedAt            time.Time `json:"created_at"`
	Verified             bool      `json:"verified"`
	HasActiveReservation bool      `json:"has_active_reservation"`
	Active               bool      `json:"active"`
}

func toProfile(a model.Account) profileResponse {
	return profileResponse{
		ID:                   a.ID.String(),
		Name:                 a.Name,
		Surname:              a.Surname,
		Username:             a.Username,
		Email:                a.Email,
		CreatedAt:            a.CreatedAt,
		Verified:             a.Verified,
		HasActiveReservation: a.HasActiveReservation,
		Active:               a.Active,
	}
}

func toProfiles(accs []model.Account) []profileResponse {
	out := make([]profileResponse, 0, len(accs))
	for _, a := range accs {
		out = append(out, toProfile(a))
	}
	return out
}
