// Package auth implements the identity collaborator: password hashing,
// credential validation, and the JWT tokens that carry the authenticated
// {userId, role, displayName} identity into the chat core.
package auth

import (
	"casechat/domain"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signingKey is the secret used to sign tokens. Overridden from
// configuration at startup; the default only serves tests.
var signingKey = []byte("casechat_dev_signing_key_do_not_ship")

// SetSigningKey installs the configured secret. Call once in main before
// serving.
func SetSigningKey(secret string) {
	if secret != "" {
		signingKey = []byte(secret)
	}
}

// IdentityClaims is the data stored inside the JWT. The chat core trusts
// these fields once the signature verifies; no further lookup is needed
// to register a session.
type IdentityClaims struct {
	UserID      string      `json:"user_id"`
	Role        domain.Role `json:"role"`
	DisplayName string      `json:"display_name"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a specific user.
func GenerateToken(user domain.User, tokenDuration time.Duration) (string, error) {
	claims := &IdentityClaims{
		UserID:      user.ID,
		Role:        user.Role,
		DisplayName: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "casechat",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken parses and validates the signature and expiration of a
// JWT string. A failure here rejects the connection before it ever
// reaches the registry.
func ValidateToken(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*IdentityClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
