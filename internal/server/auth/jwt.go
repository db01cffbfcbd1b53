// Package auth issues and verifies the HS256 tokens guarding the
// administrative/test surface (direct message sends).
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/momentum-ia/momentum/internal/common"
)

// Claims carries the standard registered claims plus the operator name.
type Claims struct {
	jwt.RegisteredClaims
	Operator string
}

// GenerateToken mints a signed admin token for the given subject.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Operator: subject,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSubjectFromToken parses and validates a token, returning its subject.
func GetSubjectFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Operator, nil
}
