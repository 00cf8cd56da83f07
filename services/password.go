package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"

	"github.com/Fababum/portfolio/shared"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost defines the bcrypt work factor.
var bcryptCost = 12

// bcrypt only reads the first 72 bytes of a password and refuses longer ones.
const maxPasswordBytes = 72

var ErrPasswordTooLong = shared.ErrValidation("Password must be at most 72 bytes")

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash with a plaintext password. Rows carried
// over from the old store hold a bare SHA-256 hex digest; those still verify,
// and needsRehash tells the caller to replace them with bcrypt.
func CheckPassword(hash, password string) (ok bool, needsRehash bool) {
	if isLegacyDigest(hash) {
		sum := sha256.Sum256([]byte(password))
		digest := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(digest), []byte(hash)) == 1, true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, false
}

// burnPasswordCheck spends the same time as a real bcrypt check so a missing
// username cannot be told apart from a wrong password.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func isLegacyDigest(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
