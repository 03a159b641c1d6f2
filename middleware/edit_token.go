package middleware

import (
	"context"
	"log"
	"net/http"

	"clickshare/models"

	"github.com/gorilla/mux"
)

// EditTokenHeader carries the edit token on API requests.
const EditTokenHeader = "X-Edit-Token"

type contextKey string

const editorProfileKey contextKey = "editorProfile"

// ProfileLookup resolves an edit token to its profile, nil when unknown.
type ProfileLookup interface {
	GetByEditToken(ctx context.Context, editToken string) (*models.Profile, error)
}

// RequireEditToken admits requests whose edit token belongs to the profile
// named by the {id} route variable. The profile is stored in the context.
func RequireEditToken(profiles ProfileLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := editTokenFromRequest(r)
			if token == "" {
				writeErrorResponse(w, http.StatusUnauthorized, "Edit token required")
				return
			}

			profile, err := profiles.GetByEditToken(r.Context(), token)
			if err != nil {
				log.Printf("edit token lookup failed: path=%s err=%v", r.URL.Path, err)
				writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if profile == nil {
				writeErrorResponse(w, http.StatusForbidden, "Invalid edit token")
				return
			}
			if id, ok := mux.Vars(r)["id"]; ok && id != profile.ID {
				writeErrorResponse(w, http.StatusForbidden, "Invalid edit token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithProfile(r.Context(), profile)))
		})
	}
}

func ProfileFromContext(ctx context.Context) (*models.Profile, bool) {
	profile, ok := ctx.Value(editorProfileKey).(*models.Profile)
	return profile, ok
}

func ContextWithProfile(ctx context.Context, profile *models.Profile) context.Context {
	return context.WithValue(ctx, editorProfileKey, profile)
}

func editTokenFromRequest(r *http.Request) string {
	if token := r.Header.Get(EditTokenHeader); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}
