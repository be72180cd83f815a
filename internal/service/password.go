package service

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

const bcryptCost = 12

// PasswordScheme verifies one stored-hash format.
type PasswordScheme interface {
	Name() string
	// Recognizes reports whether stored was produced by this scheme.
	Recognizes(stored string) bool
	Verify(stored, password string) bool
}

// bcryptScheme is the current format; new and upgraded hashes use it.
type bcryptScheme struct{}

func (bcryptScheme) Name() string { return "bcrypt" }

func (bcryptScheme) Recognizes(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

func (bcryptScheme) Verify(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// scryptScheme reads legacy "hexhash.salt" hashes: a 64-byte scrypt key
// (N=16384, r=8, p=1) derived with the salt text as salt.
type scryptScheme struct{}

const scryptKeyLen = 64

func (scryptScheme) Name() string { return "scrypt" }

func (scryptScheme) Recognizes(stored string) bool {
	hash, salt, ok := strings.Cut(stored, ".")
	if !ok || salt == "" || len(hash) != scryptKeyLen*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func (scryptScheme) Verify(stored, password string) bool {
	hash, salt, _ := strings.Cut(stored, ".")
	want, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	got, err := scrypt.Key([]byte(password), []byte(salt), 16384, 8, 1, scryptKeyLen)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, got) == 1
}

// passwordSchemes is the closed set of accepted formats, current first.
var passwordSchemes = []PasswordScheme{bcryptScheme{}, scryptScheme{}}

// verifyPassword checks password against stored and reports whether the
// stored hash should be replaced with a bcrypt one.
func verifyPassword(stored, password string) (ok, upgrade bool) {
	for _, scheme := range passwordSchemes {
		if !scheme.Recognizes(stored) {
			continue
		}
		if !scheme.Verify(stored, password) {
			return false, false
		}
		return true, scheme.Name() != "bcrypt"
	}
	return false, false
}

// HashPassword produces a hash in the current format.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
