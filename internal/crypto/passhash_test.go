package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 32
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal", n)
	}
}

func TestArgon2_HashAndVerify(t *testing.T) {
	t.Parallel()

	v := Argon2{}
	stored, err := v.Hash("p@ssw0rd")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(stored, "$argon2id$") {
		t.Fatalf("unexpected encoding: %q", stored)
	}
	if strings.Contains(stored, "p@ssw0rd") {
		t.Fatalf("stored value leaks the secret")
	}

	if !v.Verify("p@ssw0rd", stored) {
		t.Fatalf("correct secret rejected")
	}
	if v.Verify("p@ssw0rd!", stored) {
		t.Fatalf("wrong secret accepted")
	}
	if v.Verify("", stored) {
		t.Fatalf("empty secret accepted")
	}
}

func TestArgon2_SaltMakesHashesDiffer(t *testing.T) {
	t.Parallel()

	v := Argon2{}
	h1, err := v.Hash("same")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := v.Hash("same")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Fatalf("hashes of the same secret should differ by salt")
	}
	if !v.Verify("same", h1) || !v.Verify("same", h2) {
		t.Fatalf("both hashes must verify")
	}
}

func TestArgon2_RejectsGarbageStoredValues(t *testing.T) {
	t.Parallel()

	v := Argon2{}
	for _, stored := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=1$notbase64!$alsonot!",
		"$bcrypt$whatever",
	} {
		if v.Verify("secret", stored) {
			t.Fatalf("Verify accepted malformed stored value %q", stored)
		}
	}
}

func TestPlain(t *testing.T) {
	t.Parallel()

	v := Plain{}
	stored, err := v.Hash("secret")
	if err != nil || stored != "secret" {
		t.Fatalf("Plain.Hash: %q, %v", stored, err)
	}
	if !v.Verify("secret", "secret") || v.Verify("secret", "other") {
		t.Fatalf("Plain.Verify equality semantics broken")
	}
}
