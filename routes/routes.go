package routes

import (
	"net/http"

	"clickshare/handlers"
	"clickshare/middleware"
	"clickshare/web"

	"github.com/gorilla/mux"
)

// Handlers groups everything the router dispatches to. Storage is nil unless
// the local storage backend is in use.
type Handlers struct {
	Profiles   *handlers.ProfileHandler
	Pages      *handlers.PageHandler
	Storage    *handlers.StorageHandler
	EditTokens middleware.ProfileLookup
}

func SetupRoutes(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)

	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", web.Static())).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	requireEditToken := middleware.RequireEditToken(h.EditTokens)
	api.Handle("/health", middleware.ErrorHandler(handlers.HealthHandler)).Methods("GET")
	api.Handle("/profiles", middleware.ErrorHandler(h.Profiles.CreateHandler)).Methods("POST")
	api.Handle("/profiles/slug/{slug}", middleware.ErrorHandler(h.Profiles.GetBySlugHandler)).Methods("GET")
	api.Handle("/profiles/edit", middleware.ErrorHandler(h.Profiles.GetByEditTokenHandler)).Methods("GET")
	api.Handle("/profiles/{id}", requireEditToken(middleware.ErrorHandler(h.Profiles.UpdateHandler))).Methods("PUT")
	api.Handle("/profiles/{id}/visits", middleware.ErrorHandler(h.Profiles.IncrementVisitsHandler)).Methods("POST")
	api.Handle("/profiles/{id}/qr-scans", middleware.ErrorHandler(h.Profiles.IncrementQRScansHandler)).Methods("POST")
	api.Handle("/profiles/{id}/image", requireEditToken(middleware.ErrorHandler(h.Profiles.SetImageHandler))).Methods("POST")
	api.Handle("/storage/upload-url", middleware.ErrorHandler(h.Profiles.UploadURLHandler)).Methods("POST")

	if h.Storage != nil {
		router.Handle("/storage/upload/{id}", middleware.ErrorHandler(h.Storage.UploadHandler)).Methods("PUT")
		router.Handle("/storage/{id}", middleware.ErrorHandler(h.Storage.ServeHandler)).Methods("GET")
	}

	pages := h.Pages
	router.HandleFunc("/", pages.Page(pages.HomeHandler)).Methods("GET")
	router.HandleFunc("/create", pages.Page(pages.CreateFormHandler)).Methods("GET")
	router.HandleFunc("/create", pages.Page(pages.CreateSubmitHandler)).Methods("POST")
	router.HandleFunc("/edit", pages.Page(pages.EditFormHandler)).Methods("GET")
	router.HandleFunc("/edit", pages.Page(pages.EditSubmitHandler)).Methods("POST")
	router.HandleFunc("/{slug}/vcard", pages.Page(pages.VCardHandler)).Methods("GET")
	router.HandleFunc("/{slug}/qr.png", pages.Page(pages.QRCodeHandler)).Methods("GET")
	router.HandleFunc("/{slug}", pages.Page(pages.ViewHandler)).Methods("GET")

	return router
}
