package utils_test

import (
	"testing"
	"time"

	"clickshare/utils"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAndParseUploadToken(t *testing.T) {
	secret := []byte("supersecret")

	token, err := utils.GenerateUploadToken("storage-id", time.Minute, "test-issuer", secret)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	parsed, err := utils.ParseUploadToken(token, secret)
	assert.NoError(t, err)
	assert.Equal(t, "storage-id", parsed.StorageID)
	assert.Equal(t, "test-issuer", parsed.Issuer)
}

func TestParseUploadTokenInvalid(t *testing.T) {
	secret := []byte("supersecret")
	_, err := utils.ParseUploadToken("not.a.valid.token", secret)
	assert.Error(t, err)
}

func TestParseUploadTokenWrongSecret(t *testing.T) {
	token, err := utils.GenerateUploadToken("storage-id", time.Minute, "issuer", []byte("one"))
	assert.NoError(t, err)

	_, err = utils.ParseUploadToken(token, []byte("two"))
	assert.Error(t, err)
}

func TestParseUploadTokenExpired(t *testing.T) {
	secret := []byte("supersecret")
	token, err := utils.GenerateUploadToken("storage-id", -time.Minute, "issuer", secret)
	assert.NoError(t, err)

	_, err = utils.ParseUploadToken(token, secret)
	assert.Error(t, err)
}
