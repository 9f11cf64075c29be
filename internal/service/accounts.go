// Package service contains the account directory: the only component that
// translates between raw store records and typed accounts, and enforces
// account-level invariants before delegating to the repository.
package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/dinneconnect/auth-service/internal/crypto"
	"github.com/dinneconnect/auth-service/internal/errs"
	"github.com/dinneconnect/auth-service/internal/limiter"
	"github.com/dinneconnect/auth-service/internal/model"
	"github.com/dinneconnect/auth-service/internal/repository"
)

// Directory defines account-level operations over the record store.
type Directory interface {
	// Authenticate resolves identifier as username or email and checks the
	// credential. Lookup failure and credential mismatch are both reported
	// as errs.ErrUnauthorized.
	Authenticate(ctx context.Context, identifier, secret, ip string) (model.Account, error)
	// Create registers a new account, enforcing case-insensitive uniqueness
	// of username and email.
	Create(ctx context.Context, in model.NewAccountInput) (model.Account, error)
	// UpdatePrimaryInfo merges non-nil profile fields into an account.
	// An empty patch reports errs.ErrNoChanges, distinct from errs.ErrNotFound.
	UpdatePrimaryInfo(ctx context.Context, id uuid.UUID, patch model.AccountPatch) (model.Account, error)
	// UpdateCredential unconditionally replaces the stored credential.
	UpdateCredential(ctx context.Context, id uuid.UUID, secret string) error
	// UpdateStatus merges non-nil status flags into an account.
	UpdateStatus(ctx context.Context, id uuid.UUID, patch model.StatusPatch) (model.Account, error)
	// Delete removes an account permanently; errs.ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns every account.
	List(ctx context.Context) []model.Account
	// GetByID loads one account; errs.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (model.Account, error)
	// GetByUsername loads one account by username, case-insensitively.
	GetByUsername(ctx context.Context, username string) (model.Account, error)
	// GetByEmail loads one account by email, case-insensitively.
	GetByEmail(ctx context.Context, email string) (model.Account, error)
}

// DirectoryImpl implements Directory over a repository.Accounts backend.
type DirectoryImpl struct {
	accounts repository.Accounts
	verifier crypto.Verifier
	lim      limiter.Limiter
	now      func() time.Time
}

var _ Directory = (*DirectoryImpl)(nil)

// NewDirectory constructs the account directory with required dependencies.
func NewDirectory(accounts repository.Accounts, verifier crypto.Verifier, lim limiter.Limiter) *DirectoryImpl {
	return &DirectoryImpl{accounts: accounts, verifier: verifier, lim: lim, now: time.Now}
}

// WithClock overrides the time source. Test use only.
func (d *DirectoryImpl) WithClock(now func() time.Time) *DirectoryImpl {
	d.now = now
	return d
}

// Authenticate looks the identifier up by username first, then by email, and
// compares the supplied secret against the stored credential. Failed lookups
// are masked as unauthorized so callers cannot probe for account existence.
func (d *DirectoryImpl) Authenticate(ctx context.Context, identifier, secret, ip string) (model.Account, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := d.lim.Allow(ctx, identifier, ipHash)
	if err != nil {
		return model.Account{}, err
	}
	if !allowed {
		return model.Account{}, errs.ErrRateLimited
	}

	acc, err := d.accounts.ByField("username", identifier)
	if err != nil {
		acc, err = d.accounts.ByField("email", identifier)
	}
	if err != nil || !d.verifier.Verify(secret, acc.Credential) {
		if blocked, _, ferr := d.lim.Failure(ctx, identifier, ipHash); ferr == nil && blocked {
			return model.Account{}, errs.ErrRateLimited
		}
		return model.Account{}, errs.ErrUnauthorized
	}

	_ = d.lim.Success(ctx, identifier, ipHash)
	return acc, nil
}

// Create validates the profile, enforces uniqueness, hashes the credential
// and writes the record through the repository. Status flags start false and
// the creation timestamp is set exactly once.
func (d *DirectoryImpl) Create(_ context.Context, in model.NewAccountInput) (model.Account, error) {
	if in.Username == "" || in.Email == "" || in.Credential == "" {
		return model.Account{}, fmt.Errorf("%w: username, email and credential are required", errs.ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return model.Account{}, fmt.Errorf("%w: invalid email format", errs.ErrValidation)
	}
	if _, err := d.accounts.ByField("username", in.Username); err == nil {
		return model.Account{}, fmt.Errorf("%w: username %q", errs.ErrAlreadyExists, in.Username)
	}
	if _, err := d.accounts.ByField("email", in.Email); err == nil {
		return model.Account{}, fmt.Errorf("%w: email %q", errs.ErrAlreadyExists, in.Email)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return model.Account{}, err
	}
	hashed, err := d.verifier.Hash(in.Credential)
	if err != nil {
		return model.Account{}, err
	}

	acc := model.Account{
		ID:         id,
		Name:       in.Name,
		Surname:    in.Surname,
		Username:   in.Username,
		Email:      in.Email,
		Credential: hashed,
		CreatedAt:  d.now().UTC(),
	}
	if err := d.accounts.Insert(acc); err != nil {
		return model.Account{}, err
	}
	return acc, nil
}

// UpdatePrimaryInfo merges non-nil fields of the patch. Username and email
// changes re-check uniqueness against live accounts other than the target.
func (d *DirectoryImpl) UpdatePrimaryInfo(_ context.Context, id uuid.UUID, patch model.AccountPatch) (model.Account, error) {
	if patch.IsEmpty() {
		return model.Account{}, errs.ErrNoChanges
	}
	if patch.Username != nil {
		if other, err := d.accounts.ByField("username", *patch.Username); err == nil && other.ID != id {
			return model.Account{}, fmt.Errorf("%w: username %q", errs.ErrAlreadyExists, *patch.Username)
		}
	}
	if patch.Email != nil {
		if _, err := mail.ParseAddress(*patch.Email); err != nil {
			return model.Account{}, fmt.Errorf("%w: invalid email format", errs.ErrValidation)
		}
		if other, err := d.accounts.ByField("email", *patch.Email); err == nil && other.ID != id {
			return model.Account{}, fmt.Errorf("%w: email %q", errs.ErrAlreadyExists, *patch.Email)
		}
	}
	return d.accounts.Update(id.String(), patch.Apply)
}

// UpdateCredential hashes and stores a new credential for the account.
func (d *DirectoryImpl) UpdateCredential(_ context.Context, id uuid.UUID, secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: credential must not be empty", errs.ErrValidation)
	}
	hashed, err := d.verifier.Hash(secret)
	if err != nil {
		return err
	}
	_, err = d.accounts.Update(id.String(), func(a model.Account) model.Account {
		a.Credential = hashed
		return a
	})
	return err
}

// UpdateStatus merges non-nil status flags of the patch.
func (d *DirectoryImpl) UpdateStatus(_ context.Context, id uuid.UUID, patch model.StatusPatch) (model.Account, error) {
	if patch.IsEmpty() {
		return model.Account{}, errs.ErrNoChanges
	}
	return d.accounts.Update(id.String(), patch.Apply)
}

// Delete removes the account record permanently. There is no soft delete;
// the ID is never reused because IDs are random.
func (d *DirectoryImpl) Delete(_ context.Context, id uuid.UUID) error {
	return d.accounts.DeleteByKey(id.String())
}

// List returns every account in insertion order.
func (d *DirectoryImpl) List(_ context.Context) []model.Account {
	return d.accounts.All()
}

// GetByID loads one account by its ID.
func (d *DirectoryImpl) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	return d.accounts.ByKey(id.String())
}

// GetByUsername loads one account by username.
func (d *DirectoryImpl) GetByUsername(_ context.Context, username string) (model.Account, error) {
	return d.accounts.ByField("username", strings.TrimSpace(username))
}

// GetByEmail loads one account by email.
func (d *DirectoryImpl) GetByEmail(_ context.Context, email string) (model.Account, error) {
	return d.accounts.ByField("email", strings.TrimSpace(email))
}
