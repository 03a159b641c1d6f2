package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"clickshare/middleware"
	"clickshare/models"
	"clickshare/repository"
	"clickshare/storage"
	"clickshare/telemetry"
	"clickshare/utils"

	"github.com/gorilla/mux"
)

// ProfileHandler serves the JSON API under /api/v1.
type ProfileHandler struct {
	profiles ProfileStore
	storage  storage.Storage
	metrics  *telemetry.Metrics
}

func NewProfileHandler(profiles ProfileStore, store storage.Storage, metrics *telemetry.Metrics) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, storage: store, metrics: metrics}
}

type createProfileRequest struct {
	models.ProfileInput
	Slug string `json:"slug"`
}

type setImageRequest struct {
	StorageID string `json:"storage_id"`
}

func (h *ProfileHandler) GetBySlugHandler(w http.ResponseWriter, r *http.Request) error {
	profile, err := h.profiles.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		log.Printf("Error loading profile by slug: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	if profile == nil {
		return middleware.WriteJSON(w, http.StatusOK, nil)
	}
	return middleware.WriteJSON(w, http.StatusOK, profile.Public())
}

func (h *ProfileHandler) GetByEditTokenHandler(w http.ResponseWriter, r *http.Request) error {
	token := r.URL.Query().Get("token")
	if token == "" {
		return middleware.NewAppError(http.StatusBadRequest, "token is required", nil)
	}
	profile, err := h.profiles.GetByEditToken(r.Context(), token)
	if err != nil {
		log.Printf("Error loading profile by edit token: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	if profile == nil {
		return middleware.WriteJSON(w, http.StatusOK, nil)
	}
	return middleware.WriteJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) CreateHandler(w http.ResponseWriter, r *http.Request) error {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid request payload", err)
	}

	slug := utils.NormalizeSlug(req.Slug)
	if !utils.ValidSlug(slug) {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid slug", nil)
	}

	editToken, err := generateEditToken()
	if err != nil {
		log.Printf("Error generating edit token: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}

	id, err := h.profiles.Create(r.Context(), req.ProfileInput, slug, editToken)
	if err != nil {
		return profileWriteError(err)
	}
	h.metrics.RecordCreated(r.Context(), "api")
	log.Printf("profile created id=%s slug=%s source=api", id, slug)

	return middleware.WriteJSON(w, http.StatusCreated, JSONResponse{
		"id":         id,
		"slug":       slug,
		"edit_token": editToken,
	})
}

// UpdateHandler replaces every mutable field. It runs behind RequireEditToken.
func (h *ProfileHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) error {
	var input models.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid request payload", err)
	}
	input.CustomTheme = sanitizeTheme(input.CustomTheme)

	id := mux.Vars(r)["id"]
	if err := h.profiles.Update(r.Context(), id, input); err != nil {
		return profileWriteError(err)
	}
	return middleware.WriteJSON(w, http.StatusOK, JSONResponse{"id": id})
}

func (h *ProfileHandler) IncrementVisitsHandler(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	visits, found, err := h.profiles.IncrementVisits(r.Context(), id)
	if err != nil {
		log.Printf("Error incrementing visits: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	if !found {
		return middleware.WriteJSON(w, http.StatusOK, nil)
	}
	h.metrics.RecordVisit(r.Context())
	return middleware.WriteJSON(w, http.StatusOK, JSONResponse{"visits": visits})
}

func (h *ProfileHandler) IncrementQRScansHandler(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	scans, found, err := h.profiles.IncrementQRScans(r.Context(), id)
	if err != nil {
		log.Printf("Error incrementing QR scans: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	if !found {
		return middleware.WriteJSON(w, http.StatusOK, nil)
	}
	h.metrics.RecordQRScan(r.Context())
	return middleware.WriteJSON(w, http.StatusOK, JSONResponse{"qr_code_scans": scans})
}

func (h *ProfileHandler) UploadURLHandler(w http.ResponseWriter, r *http.Request) error {
	target, err := h.storage.GenerateUploadURL(r.Context())
	if err != nil {
		log.Printf("Error generating upload url: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Could not generate upload url", err)
	}
	return middleware.WriteJSON(w, http.StatusOK, target)
}

// SetImageHandler records an uploaded object as the profile photo. It runs
// behind RequireEditToken.
func (h *ProfileHandler) SetImageHandler(w http.ResponseWriter, r *http.Request) error {
	var req setImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid request payload", err)
	}
	storageID := strings.TrimSpace(req.StorageID)
	if storageID == "" {
		return middleware.NewAppError(http.StatusBadRequest, "storage_id is required", nil)
	}

	if err := h.profiles.SetProfileImage(r.Context(), mux.Vars(r)["id"], storageID); err != nil {
		return profileWriteError(err)
	}
	return middleware.WriteJSON(w, http.StatusOK, JSONResponse{
		"storage_id": storageID,
		"url":        h.storage.PublicURL(storageID),
	})
}

func profileWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidProfile):
		return middleware.NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, repository.ErrSlugTaken):
		return middleware.NewAppError(http.StatusConflict, "Slug is already taken", err)
	case errors.Is(err, repository.ErrProfileNotFound):
		return middleware.NewAppError(http.StatusNotFound, "Profile not found", err)
	default:
		log.Printf("Error writing profile: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}
