package utils

import (
	"crypto/rand"
	"encoding/base64"
)

var randRead = rand.Read

// GenerateEditToken returns 32 random bytes, base64url encoded without padding.
func GenerateEditToken() (string, error) {
	buffer := make([]byte, 32)
	if _, err := randRead(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
