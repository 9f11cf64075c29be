// Package repository defines storage interfaces implemented by concrete backends.
package repository

import "github.com/dinneconnect/auth-service/internal/model"

// Accounts provides keyed CRUD access to account records.
// The file-backed store in internal/store is the production implementation.
type Accounts interface {
	// Insert appends a new record; fails with errs.ErrAlreadyExists on key collision.
	Insert(rec model.Account) error
	// All returns a defensive copy of every record in insertion order.
	All() []model.Account
	// ByKey loads a record by its key; errs.ErrNotFound if absent.
	ByKey(key string) (model.Account, error)
	// ByField returns the first record whose field matches value case-insensitively.
	ByField(field, value string) (model.Account, error)
	// Update applies fn to the record with the given key and persists the result.
	Update(key string, fn func(model.Account) model.Account) (model.Account, error)
	// DeleteByKey removes a record permanently; errs.ErrNotFound if absent.
	DeleteByKey(key string) error
}
