package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clickshare/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPresigner struct {
	url    string
	err    error
	params *s3.PutObjectInput
}

func (s *stubPresigner) PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return &v4.PresignedHTTPRequest{URL: s.url, Method: http.MethodPut}, nil
}

func stubAWS(t *testing.T, presigner *stubPresigner) {
	t.Helper()
	originalLoad := loadDefaultConfig
	originalPresigner := newPresigner
	loadDefaultConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "eu-west-1"}, nil
	}
	newPresigner = func(cfg aws.Config, storage config.StorageConfig) objectPresigner {
		return presigner
	}
	t.Cleanup(func() {
		loadDefaultConfig = originalLoad
		newPresigner = originalPresigner
	})
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), config.StorageConfig{})
	assert.Error(t, err)
}

func TestNewS3StorageConfigError(t *testing.T) {
	originalLoad := loadDefaultConfig
	loadDefaultConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}
	defer func() { loadDefaultConfig = originalLoad }()

	_, err := NewS3Storage(context.Background(), config.StorageConfig{Bucket: "cards"})
	assert.Error(t, err)
}

func TestS3GenerateUploadURL(t *testing.T) {
	presigner := &stubPresigner{url: "https://cards.s3.eu-west-1.amazonaws.com/profiles/x?X-Amz-Signature=abc"}
	stubAWS(t, presigner)

	s, err := NewS3Storage(context.Background(), config.StorageConfig{Bucket: "cards", UploadTTL: time.Minute})
	require.NoError(t, err)

	target, err := s.GenerateUploadURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, presigner.url, target.UploadURL)
	assert.Regexp(t, `^profiles/[0-9a-f-]{36}$`, target.StorageID)
	assert.Equal(t, "cards", aws.ToString(presigner.params.Bucket))
	assert.Equal(t, target.StorageID, aws.ToString(presigner.params.Key))
}

func TestS3GenerateUploadURLError(t *testing.T) {
	stubAWS(t, &stubPresigner{err: errors.New("denied")})

	s, err := NewS3Storage(context.Background(), config.StorageConfig{Bucket: "cards"})
	require.NoError(t, err)

	_, err = s.GenerateUploadURL(context.Background())
	assert.Error(t, err)
}

func TestS3UploadPutsToPresignedURL(t *testing.T) {
	var gotBody, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := &S3Storage{bucket: "cards"}
	err := s.Upload(context.Background(), UploadTarget{UploadURL: server.URL + "/profiles/x"}, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", gotBody)
	assert.Equal(t, "image/jpeg", gotType)
}

func TestS3UploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := &S3Storage{bucket: "cards"}
	err := s.Upload(context.Background(), UploadTarget{UploadURL: server.URL}, []byte("jpeg"), "image/jpeg")
	assert.Error(t, err)
}

func TestS3PublicURL(t *testing.T) {
	withBase := &S3Storage{bucket: "cards", publicBaseURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/profiles/abc", withBase.PublicURL("profiles/abc"))
	assert.Equal(t, "https://elsewhere.test/me.png", withBase.PublicURL("https://elsewhere.test/me.png"))

	regional := &S3Storage{bucket: "cards", region: "eu-west-1"}
	assert.Equal(t, "https://cards.s3.eu-west-1.amazonaws.com/profiles/abc", regional.PublicURL("profiles/abc"))

	global := &S3Storage{bucket: "cards"}
	assert.Equal(t, "https://cards.s3.amazonaws.com/profiles/abc", global.PublicURL("profiles/abc"))
}

func TestNewSelectsDriver(t *testing.T) {
	stubAWS(t, &stubPresigner{})

	local, err := New(context.Background(), config.Config{
		BaseURL: "http://cards.test",
		Storage: config.StorageConfig{Driver: config.StorageDriverLocal, LocalDir: t.TempDir(), SigningSecret: []byte("s")},
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, local)

	remote, err := New(context.Background(), config.Config{
		Storage: config.StorageConfig{Driver: config.StorageDriverS3, Bucket: "cards"},
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, remote)

	_, err = New(context.Background(), config.Config{Storage: config.StorageConfig{Driver: "ftp"}}, nil)
	assert.Error(t, err)
}

func TestIsAbsoluteURL(t *testing.T) {
	assert.True(t, IsAbsoluteURL("https://a.test/x"))
	assert.True(t, IsAbsoluteURL("http://a.test/x"))
	assert.False(t, IsAbsoluteURL("profiles/x"))
}
