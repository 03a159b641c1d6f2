package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clickshare/config"
	"clickshare/store"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrInvalidUpload  = errors.New("invalid upload signature")
	ErrUploadConsumed = errors.New("upload url already used")
	ErrObjectNotFound = errors.New("object not found")
)

// UploadTarget is a one-time destination for a single image upload.
type UploadTarget struct {
	UploadURL string `json:"upload_url"`
	StorageID string `json:"storage_id"`
}

// Storage hands out upload targets and resolves stored references for
// rendering. It does not inspect what gets uploaded.
type Storage interface {
	GenerateUploadURL(ctx context.Context) (UploadTarget, error)
	Upload(ctx context.Context, target UploadTarget, data []byte, contentType string) error
	PublicURL(storageID string) string
}

var httpClient = &http.Client{
	Transport: otelhttp.NewTransport(http.DefaultTransport),
	Timeout:   30 * time.Second,
}

// New builds the backend selected by cfg.Storage.Driver. tickets may be nil.
func New(ctx context.Context, cfg config.Config, tickets store.UploadTicketStore) (Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverLocal:
		local, err := NewLocalStorage(cfg.Storage, cfg.BaseURL, tickets)
		if err != nil {
			return nil, err
		}
		return local, nil
	case config.StorageDriverS3:
		remote, err := NewS3Storage(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

// IsAbsoluteURL reports references that already point at a public location.
func IsAbsoluteURL(reference string) bool {
	return strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://")
}

// putObject performs the out-of-band upload to a presigned URL.
func putObject(ctx context.Context, uploadURL string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload image: unexpected status %d", resp.StatusCode)
	}
	return nil
}
