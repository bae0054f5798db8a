package security_test

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/security"
)

var fastParams = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("1234", fastParams)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("1234", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("4321", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordAcceptsLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("table-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, err := security.VerifyPassword("table-pass", string(legacy))
	if err != nil || !ok {
		t.Fatalf("expected bcrypt hash to verify, ok=%v err=%v", ok, err)
	}
	ok, err = security.VerifyPassword("nope", string(legacy))
	if err != nil || ok {
		t.Fatalf("expected bcrypt mismatch without error, ok=%v err=%v", ok, err)
	}
	if !security.NeedsRehash(string(legacy), fastParams) {
		t.Fatal("bcrypt hashes should be flagged for rehash")
	}
}

func TestNeedsRehashTracksParams(t *testing.T) {
	hash, err := security.HashPassword("pw", fastParams)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if security.NeedsRehash(hash, fastParams) {
		t.Fatal("fresh hash should not need rehash")
	}
	stronger := fastParams
	stronger.ArgonTime = 2
	if !security.NeedsRehash(hash, stronger) {
		t.Fatal("changed time cost should trigger rehash")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(6)
	if err != nil {
		t.Fatalf("GenerateTempPassword: %v", err)
	}
	if len(pw) != 6 {
		t.Fatalf("expected 6 chars, got %q", pw)
	}
	if _, err := security.GenerateTempPassword(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestVerifyPasswordRejectsTamperedHeader(t *testing.T) {
	hash, err := security.HashPassword("1234", fastParams)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	for _, bad := range []string{
		strings.Replace(hash, "v=19", "v=16", 1),
		strings.Replace(hash, "$argon2id$", "$argon2i$", 1),
		strings.Replace(hash, ",t=", ",x=", 1),
		hash[:strings.LastIndex(hash, "$")+1],
	} {
		if _, err := security.VerifyPassword("1234", bad); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", bad, err)
		}
	}
}

func TestGenerateTempPasswordAlphabet(t *testing.T) {
	pw, err := security.GenerateTempPassword(64)
	if err != nil {
		t.Fatalf("GenerateTempPassword: %v", err)
	}
	if strings.ContainsAny(pw, "0O1IL") {
		t.Fatalf("password %q contains look-alike characters", pw)
	}
}
