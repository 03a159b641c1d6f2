package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"clickshare/config"
	"clickshare/models"
	"clickshare/repository"
	"clickshare/storage"
	"clickshare/web"

	"github.com/stretchr/testify/require"
)

// memoryProfiles mimics the repository contract closely enough for handler tests.
type memoryProfiles struct {
	mu       sync.Mutex
	byID     map[string]*models.Profile
	nextID   int
	failWith error
}

func newMemoryProfiles(profiles ...*models.Profile) *memoryProfiles {
	store := &memoryProfiles{byID: map[string]*models.Profile{}}
	for _, profile := range profiles {
		store.byID[profile.ID] = profile
	}
	return store
}

func (m *memoryProfiles) find(match func(*models.Profile) bool) *models.Profile {
	for _, profile := range m.byID {
		if match(profile) {
			copied := *profile
			return &copied
		}
	}
	return nil
}

func (m *memoryProfiles) GetBySlug(ctx context.Context, slug string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.find(func(p *models.Profile) bool { return p.Slug == slug }), nil
}

func (m *memoryProfiles) GetByEditToken(ctx context.Context, editToken string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if editToken == "" {
		return nil, nil
	}
	return m.find(func(p *models.Profile) bool { return p.EditToken == editToken }), nil
}

func (m *memoryProfiles) Create(ctx context.Context, input models.ProfileInput, slug, editToken string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return "", m.failWith
	}
	if err := repository.ValidateInput(input); err != nil {
		return "", err
	}
	if m.find(func(p *models.Profile) bool { return p.Slug == slug || p.EditToken == editToken }) != nil {
		return "", repository.ErrSlugTaken
	}
	m.nextID++
	id := fmt.Sprintf("id-%d", m.nextID)
	m.byID[id] = &models.Profile{
		ID:           id,
		FullName:     input.FullName,
		JobTitle:     input.JobTitle,
		Company:      input.Company,
		ProfileImage: input.ProfileImage,
		Bio:          input.Bio,
		Email:        input.Email,
		Phone:        input.Phone,
		Website:      input.Website,
		SocialLinks:  input.SocialLinks,
		CustomTheme:  input.CustomTheme,
		Slug:         slug,
		EditToken:    editToken,
	}
	return id, nil
}

func (m *memoryProfiles) Update(ctx context.Context, id string, input models.ProfileInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if err := repository.ValidateInput(input); err != nil {
		return err
	}
	profile, ok := m.byID[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	profile.FullName = input.FullName
	profile.JobTitle = input.JobTitle
	profile.Company = input.Company
	profile.ProfileImage = input.ProfileImage
	profile.Bio = input.Bio
	profile.Email = input.Email
	profile.Phone = input.Phone
	profile.Website = input.Website
	profile.SocialLinks = input.SocialLinks
	profile.CustomTheme = input.CustomTheme
	return nil
}

func (m *memoryProfiles) IncrementVisits(ctx context.Context, id string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.byID[id]
	if !ok {
		return 0, false, nil
	}
	profile.Visits++
	return profile.Visits, true, nil
}

func (m *memoryProfiles) IncrementQRScans(ctx context.Context, id string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.byID[id]
	if !ok {
		return 0, false, nil
	}
	profile.QRCodeScans++
	return profile.QRCodeScans, true, nil
}

func (m *memoryProfiles) SetProfileImage(ctx context.Context, id, storageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.byID[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	profile.ProfileImage = storageID
	return nil
}

func (m *memoryProfiles) get(id string) models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

// fakeStorage records uploads instead of sending them anywhere.
type fakeStorage struct {
	mu        sync.Mutex
	issued    int
	uploads   map[string][]byte
	types     map[string]string
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStorage) GenerateUploadURL(ctx context.Context) (storage.UploadTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
	id := fmt.Sprintf("obj-%d", f.issued)
	return storage.UploadTarget{UploadURL: "http://uploads.test/" + id, StorageID: id}, nil
}

func (f *fakeStorage) Upload(ctx context.Context, target storage.UploadTarget, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads[target.StorageID] = data
	f.types[target.StorageID] = contentType
	return nil
}

func (f *fakeStorage) PublicURL(storageID string) string {
	if storageID == "" || storage.IsAbsoluteURL(storageID) {
		return storageID
	}
	return "http://cdn.test/" + storageID
}

func janeProfile() *models.Profile {
	return &models.Profile{
		ID:        "id-jane",
		FullName:  "Jane Doe",
		JobTitle:  "Engineer",
		Company:   "Acme",
		Bio:       "Builds things",
		Email:     "jane@acme.test",
		Phone:     "+15550100",
		Website:   "https://jane.test",
		Slug:      "jane",
		EditToken: "jane-token",
		Visits:    5,
		SocialLinks: models.SocialLinks{
			GitHub: "https://github.com/jane",
		},
	}
}

func stubEditToken(t *testing.T, token string) {
	t.Helper()
	original := generateEditToken
	generateEditToken = func() (string, error) { return token, nil }
	t.Cleanup(func() { generateEditToken = original })
}

func failingEditToken(t *testing.T) {
	t.Helper()
	original := generateEditToken
	generateEditToken = func() (string, error) { return "", errors.New("entropy exhausted") }
	t.Cleanup(func() { generateEditToken = original })
}

func newTestPageHandler(t *testing.T, profiles ProfileStore, store storage.Storage) *PageHandler {
	t.Helper()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	return NewPageHandler(config.Config{BaseURL: "http://cards.test"}, renderer, profiles, store, nil)
}
