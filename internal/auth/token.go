// Package auth issues and verifies the signed session credential carried in
// the "token" cookie.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the credential validity window. Logout only clears the client
// cookie; a captured token stays valid until this window lapses.
const TokenTTL = time.Hour

var (
	// ErrExpired means the credential was well-formed and signed but past
	// its validity window.
	ErrExpired = errors.New("token expired")
	// ErrInvalidCredential covers every other verification failure: bad
	// signature, malformed payload, wrong algorithm.
	ErrInvalidCredential = errors.New("invalid token")
)

// Claims is the identity embedded in every credential.
type Claims struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies credentials with a server-held symmetric
// secret. Validity is purely cryptographic plus expiry; nothing is persisted.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue creates a credential for the given identity, valid for TokenTTL.
func (s *TokenService) Issue(userID string, isAdmin bool) (string, error) {
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the embedded identity.
// Expiry is reported as ErrExpired, every other failure as
// ErrInvalidCredential.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidCredential
	}
	if !token.Valid {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
