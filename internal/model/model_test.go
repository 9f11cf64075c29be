package model

import (
	"testing"

	"github.com/gofrs/uuid/v5"
)

func TestAccountPatch_ApplyMergesOnlySetFields(t *testing.T) {
	t.Parallel()

	a := Account{
		ID:       uuid.Must(uuid.NewV4()),
		Name:     "Sebastian",
		Surname:  "Avendano",
		Username: "sebas1",
		Email:    "s@x.com",
	}

	if !(AccountPatch{}).IsEmpty() {
		t.Fatalf("zero patch should be empty")
	}

	name, email := "Seb", "new@x.com"
	p := AccountPatch{Name: &name, Email: &email}
	if p.IsEmpty() {
		t.Fatalf("patch with fields should not be empty")
	}

	got := p.Apply(a)
	if got.Name != "Seb" || got.Email != "new@x.com" {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Surname != a.Surname || got.Username != a.Username || got.ID != a.ID {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	// Apply works on a copy
	if a.Name != "Sebastian" {
		t.Fatalf("original mutated")
	}
}

func TestAccount_Field(t *testing.T) {
	t.Parallel()

	a := Account{ID: uuid.Must(uuid.NewV4()), Username: "sebas1", Email: "s@x.com"}
	for name, want := range map[string]string{
		"username": "sebas1",
		"Username": "sebas1",
		"EMAIL":    "s@x.com",
		"id":       a.ID.String(),
	} {
		got, ok := a.Field(name)
		if !ok || got != want {
			t.Fatalf("Field(%q) = %q, %v", name, got, ok)
		}
	}
	if _, ok := a.Field("credential"); ok {
		t.Fatalf("credential must not be projectable for lookups")
	}
	if _, ok := a.Field("nope"); ok {
		t.Fatalf("unknown field projected")
	}
}

func TestStatusPatch(t *testing.T) {
	t.Parallel()

	if !(StatusPatch{}).IsEmpty() {
		t.Fatalf("zero patch should be empty")
	}
	yes := true
	got := (StatusPatch{Active: &yes}).Apply(Account{})
	if !got.Active || got.Verified || got.HasActiveReservation {
		t.Fatalf("flag merge wrong: %+v", got)
	}
}
