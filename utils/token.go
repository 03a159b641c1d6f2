package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// UploadClaims authorize a single object upload to local storage.
type UploadClaims struct {
	StorageID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateUploadToken signs an upload grant for storageID that expires after ttl.
func GenerateUploadToken(storageID string, ttl time.Duration, issuer string, secret []byte) (string, error) {
	now := time.Now()
	claims := UploadClaims{StorageID: storageID}
	claims.Issuer = issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseUploadToken validates a token and returns its claims if valid.
func ParseUploadToken(tokenStr string, secret []byte) (*UploadClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	claims := &UploadClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}
