package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"clickshare/config"
	"clickshare/store"
	"clickshare/utils"

	"github.com/google/uuid"
)

const uploadIssuer = "clickshare-storage"

var newStorageID = uuid.NewString

// LocalStorage keeps objects on disk and signs its own upload URLs.
type LocalStorage struct {
	dir     string
	baseURL string
	secret  []byte
	ttl     time.Duration
	tickets store.UploadTicketStore
}

func NewLocalStorage(cfg config.StorageConfig, baseURL string, tickets store.UploadTicketStore) (*LocalStorage, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, errors.New("local storage requires a signing secret")
	}
	if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", cfg.LocalDir, err)
	}
	ttl := cfg.UploadTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &LocalStorage{
		dir:     cfg.LocalDir,
		baseURL: baseURL,
		secret:  cfg.SigningSecret,
		ttl:     ttl,
		tickets: tickets,
	}, nil
}

func (s *LocalStorage) GenerateUploadURL(ctx context.Context) (UploadTarget, error) {
	storageID := newStorageID()
	signature, err := utils.GenerateUploadToken(storageID, s.ttl, uploadIssuer, s.secret)
	if err != nil {
		return UploadTarget{}, fmt.Errorf("sign upload url: %w", err)
	}
	if s.tickets != nil {
		if err := s.tickets.IssueTicket(ctx, storageID, s.ttl); err != nil {
			return UploadTarget{}, fmt.Errorf("issue upload ticket: %w", err)
		}
	}
	query := url.Values{"signature": {signature}}
	return UploadTarget{
		UploadURL: fmt.Sprintf("%s/storage/upload/%s?%s", s.baseURL, storageID, query.Encode()),
		StorageID: storageID,
	}, nil
}

// Upload writes directly to disk instead of calling back into this server.
func (s *LocalStorage) Upload(ctx context.Context, target UploadTarget, data []byte, contentType string) error {
	parsed, err := url.Parse(target.UploadURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	return s.Receive(ctx, target.StorageID, parsed.Query().Get("signature"), bytes.NewReader(data))
}

// Receive stores the body of an upload made against a URL from GenerateUploadURL.
// Each storage id is written at most once: a Valkey ticket is consumed when
// configured, and the object itself is claimed with a hard link. A losing
// upload gets ErrUploadConsumed.
func (s *LocalStorage) Receive(ctx context.Context, storageID, signature string, body io.Reader) error {
	if !validStorageID(storageID) {
		return ErrInvalidUpload
	}
	claims, err := utils.ParseUploadToken(signature, s.secret)
	if err != nil || claims.StorageID != storageID {
		return ErrInvalidUpload
	}
	if s.tickets != nil {
		fresh, err := s.tickets.ConsumeTicket(ctx, storageID)
		if err != nil {
			return fmt.Errorf("consume upload ticket: %w", err)
		}
		if !fresh {
			return ErrUploadConsumed
		}
	} else if _, err := os.Stat(s.path(storageID)); err == nil {
		return ErrUploadConsumed
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	// Link fails when the object exists, so only one upload per id can land.
	if err := os.Link(tmp.Name(), s.path(storageID)); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrUploadConsumed
		}
		return fmt.Errorf("store object: %w", err)
	}
	log.Printf("storage object stored id=%s", storageID)
	return nil
}

// Open returns the stored object for serving.
func (s *LocalStorage) Open(storageID string) (*os.File, error) {
	if !validStorageID(storageID) {
		return nil, ErrObjectNotFound
	}
	file, err := os.Open(s.path(storageID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return file, nil
}

func (s *LocalStorage) PublicURL(storageID string) string {
	if storageID == "" || IsAbsoluteURL(storageID) {
		return storageID
	}
	return fmt.Sprintf("%s/storage/%s", s.baseURL, storageID)
}

func (s *LocalStorage) path(storageID string) string {
	return filepath.Join(s.dir, storageID)
}

// Storage ids are uuids, which also keeps them from escaping the storage dir.
func validStorageID(storageID string) bool {
	_, err := uuid.Parse(storageID)
	return err == nil
}
