package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation for refresh tokens
	"crypto/sha256" // SHA‑256 hashing for refresh tokens
	"encoding/hex"  // hex encoding of random bytes and digests
	"time"          // expiration arithmetic

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/legacy-vault/internal/auth"
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short‑lived, self-contained and carried in the
// Authorization header; the server keeps no session state for them.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived opaque token used to obtain new
// access tokens.  Raw is returned to the client; only its SHA‑256 hash is
// persisted.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a resolved identity.
// The claims carry everything downstream authorization needs: the resolved
// role, the email, and both pool ids (zero when the identity does not exist
// in that pool).  sub is the account-holder id when present, otherwise the
// beneficiary id, matching what clients display as "the" id.
func NewAccessToken(secret string, id auth.Resolved, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	sub := id.UserID
	if sub == 0 {
		sub = id.BeneficiaryID
	}
	claims := jwt.MapClaims{
		"sub":   sub,
		"role":  string(id.Role),
		"email": id.Email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	if id.UserID != 0 {
		claims["user_id"] = id.UserID
	}
	if id.BeneficiaryID != 0 {
		claims["beneficiary_id"] = id.BeneficiaryID
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  The ttlDays parameter controls how many days the
// refresh token stays valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA‑256 hash of the raw refresh token as a hex
// string.  Only the hash is stored, so stolen database rows cannot be used
// to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
