package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"clickshare/middleware"
	"clickshare/storage"

	"github.com/gorilla/mux"
)

// LocalObjects is the local storage backend as seen by its HTTP endpoints.
type LocalObjects interface {
	Receive(ctx context.Context, storageID, signature string, body io.Reader) error
	Open(storageID string) (*os.File, error)
}

// StorageHandler serves uploads to and downloads from local storage.
type StorageHandler struct {
	objects LocalObjects
}

func NewStorageHandler(objects LocalObjects) *StorageHandler {
	return &StorageHandler{objects: objects}
}

// UploadHandler accepts the PUT made against a signed upload URL.
func (h *StorageHandler) UploadHandler(w http.ResponseWriter, r *http.Request) error {
	storageID := mux.Vars(r)["id"]
	err := h.objects.Receive(r.Context(), storageID, r.URL.Query().Get("signature"), r.Body)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrInvalidUpload):
		return middleware.NewAppError(http.StatusForbidden, "Invalid or expired upload url", err)
	case errors.Is(err, storage.ErrUploadConsumed):
		return middleware.NewAppError(http.StatusConflict, "Upload url already used", err)
	default:
		log.Printf("Error storing upload: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	return middleware.WriteJSON(w, http.StatusOK, JSONResponse{"storage_id": storageID})
}

// ServeHandler returns a stored object. Objects never change once written.
func (h *StorageHandler) ServeHandler(w http.ResponseWriter, r *http.Request) error {
	file, err := h.objects.Open(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return middleware.NewAppError(http.StatusNotFound, "Object not found", err)
		}
		log.Printf("Error opening object: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, "", info.ModTime(), file)
	return nil
}
