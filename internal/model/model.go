// Package model defines domain entities used by services and the record store.
package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Account represents a registered user. Credential holds the encoded
// one-way hash of the user's secret, never the secret itself.
type Account struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Surname              string    `json:"surname"`
	Username             string    `json:"username"` // unique
	Email                string    `json:"email"`    // unique
	Credential           string    `json:"credential"`
	CreatedAt            time.Time `json:"created_at"` // set once at creation
	Verified             bool      `json:"verified"`
	HasActiveReservation bool      `json:"has_active_reservation"`
	Active               bool      `json:"active"`
}

// Key returns the stable record key for the store.
func (a Account) Key() string { return a.ID.String() }

// Field projects a named attribute as a string for scan-based lookups.
// Lookups are case-insensitive in the store; values are returned as stored.
func (a Account) Field(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "id":
		return a.ID.String(), true
	case "name":
		return a.Name, true
	case "surname":
		return a.Surname, true
	case "username":
		return a.Username, true
	case "email":
		return a.Email, true
	default:
		return "", false
	}
}

// NewAccountInput carries the profile supplied at registration.
type NewAccountInput struct {
	Name       string
	Surname    string
	Username   string
	Email      string
	Credential string // raw secret, hashed before storage
}

// AccountPatch is a partial update of primary profile fields.
// Nil fields are left untouched.
type AccountPatch struct {
	Name     *string
	Surname  *string
	Username *string
	Email    *string
}

// IsEmpty reports whether the patch carries no fields at all.
func (p AccountPatch) IsEmpty() bool {
	return p.Name == nil && p.Surname == nil && p.Username == nil && p.Email == nil
}

// Apply merges the patch into a copy of the account.
func (p AccountPatch) Apply(a Account) Account {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Surname != nil {
		a.Surname = *p.Surname
	}
	if p.Username != nil {
		a.Username = *p.Username
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	return a
}

// StatusPatch is a partial update of account status flags.
type StatusPatch struct {
	Verified             *bool
	HasActiveReservation *bool
	Active               *bool
}

// IsEmpty reports whether the patch carries no flags at all.
func (p StatusPatch) IsEmpty() bool {
	return p.Verified == nil && p.HasActiveReservation == nil && p.Active == nil
}

// Apply merges the patch into a copy of the account.
func (p StatusPatch) Apply(a Account) Account {
	if p.Verified != nil {
		a.Verified = *p.Verified
	}
	if p.HasActiveReservation != nil {
		a.HasActiveReservation = *p.HasActiveReservation
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
	return a
}

// Session collects an issued access token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}
