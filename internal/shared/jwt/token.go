package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token shape the auth service issues: subject is the
// identity id, role is one of the platform roles.
type Claims struct {
	IdentityID string `json:"sub"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(secret []byte, identityID, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		IdentityID: identityID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			Issuer:    "auth-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
