package handlers

import (
	"context"
	"net/http"
	"time"

	"clickshare/db"
	"clickshare/middleware"
)

// HealthHandler reports whether the database answers a ping.
func HealthHandler(w http.ResponseWriter, r *http.Request) error {
	if db.DB == nil {
		return middleware.NewAppError(http.StatusServiceUnavailable, "Database unavailable", nil)
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := db.DB.PingContext(ctx); err != nil {
		return middleware.NewAppError(http.StatusServiceUnavailable, "Database unavailable", err)
	}
	return middleware.WriteJSON(w, http.StatusOK, JSONResponse{"status": "ok"})
}
