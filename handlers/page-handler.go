package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"clickshare/card"
	"clickshare/config"
	"clickshare/middleware"
	"clickshare/models"
	"clickshare/repository"
	"clickshare/storage"
	"clickshare/telemetry"
	"clickshare/utils"
	"clickshare/web"

	"github.com/gorilla/mux"
)

const (
	createFailedAlert = "Error creating profile. Please try again."
	updateFailedAlert = "Error updating profile. Please try again."
	slugTakenAlert    = "That link is already taken. Please choose another."
	invalidSlugAlert  = "Please choose a different link."
)

var (
	profileNotFoundPage = web.ErrorData{
		Heading:  "404",
		Message:  "This person doesn't exist here.",
		LinkHref: "/",
		LinkText: "MAKE YOUR OWN",
	}
	invalidEditLinkPage = web.ErrorData{
		Heading:  "ERROR",
		Message:  "Invalid edit link",
		LinkHref: "/",
		LinkText: "GO HOME",
	}
	unexpectedErrorPage = web.ErrorData{
		Heading:  "ERROR",
		Message:  "Something went wrong. Please try again.",
		LinkHref: "/",
		LinkText: "GO HOME",
	}
)

// PageHandler serves the server-rendered pages.
type PageHandler struct {
	baseURL  string
	renderer *web.Renderer
	profiles ProfileStore
	storage  storage.Storage
	metrics  *telemetry.Metrics
}

func NewPageHandler(cfg config.Config, renderer *web.Renderer, profiles ProfileStore, store storage.Storage, metrics *telemetry.Metrics) *PageHandler {
	return &PageHandler{
		baseURL:  cfg.BaseURL,
		renderer: renderer,
		profiles: profiles,
		storage:  store,
		metrics:  metrics,
	}
}

// Page adapts a page handler, rendering the error page instead of JSON when
// it fails.
func (h *PageHandler) Page(handler middleware.AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Printf("panic recovered: method=%s path=%s panic=%v", r.Method, r.URL.Path, recovered)
				_ = h.renderer.Render(w, http.StatusInternalServerError, web.PageError, unexpectedErrorPage)
			}
		}()
		if err := handler(w, r); err != nil {
			log.Printf("page failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
			status := http.StatusInternalServerError
			var appErr *middleware.AppError
			if errors.As(err, &appErr) {
				status = appErr.Status
			}
			_ = h.renderer.Render(w, status, web.PageError, unexpectedErrorPage)
		}
	}
}

func (h *PageHandler) HomeHandler(w http.ResponseWriter, r *http.Request) error {
	if query := strings.TrimSpace(r.URL.Query().Get("slug")); query != "" {
		http.Redirect(w, r, "/"+url.PathEscape(query), http.StatusSeeOther)
		return nil
	}
	return h.renderer.Render(w, http.StatusOK, web.PageHome, web.HomeData{})
}

func (h *PageHandler) CreateFormHandler(w http.ResponseWriter, r *http.Request) error {
	return h.renderCreateForm(w, http.StatusOK, ProfileForm{}, "")
}

func (h *PageHandler) CreateSubmitHandler(w http.ResponseWriter, r *http.Request) error {
	form, err := parseProfileForm(r)
	if err != nil {
		log.Printf("Error parsing create form: %v", err)
		return h.renderCreateForm(w, http.StatusBadRequest, form, createFailedAlert)
	}

	slug := utils.NormalizeSlug(form.Slug)
	if !utils.ValidSlug(slug) {
		return h.renderCreateForm(w, http.StatusUnprocessableEntity, form, invalidSlugAlert)
	}
	form.Slug = slug

	// Reject what Create would reject before the photo reaches storage.
	if err := repository.ValidateInput(form.Input("")); err != nil {
		return h.renderCreateForm(w, http.StatusUnprocessableEntity, form, createFailedAlert)
	}
	existing, err := h.profiles.GetBySlug(r.Context(), slug)
	if err != nil {
		log.Printf("Error checking slug: %v", err)
		return h.renderCreateForm(w, http.StatusInternalServerError, form, createFailedAlert)
	}
	if existing != nil {
		return h.renderCreateForm(w, http.StatusConflict, form, slugTakenAlert)
	}

	imageRef, err := h.uploadPhoto(r)
	if err != nil {
		log.Printf("Error uploading profile photo: %v", err)
		return h.renderCreateForm(w, http.StatusBadGateway, form, createFailedAlert)
	}

	editToken, err := generateEditToken()
	if err != nil {
		return fmt.Errorf("generate edit token: %w", err)
	}

	id, err := h.profiles.Create(r.Context(), form.Input(imageRef), slug, editToken)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrSlugTaken):
		return h.renderCreateForm(w, http.StatusConflict, form, slugTakenAlert)
	case errors.Is(err, repository.ErrInvalidProfile):
		return h.renderCreateForm(w, http.StatusUnprocessableEntity, form, createFailedAlert)
	default:
		log.Printf("Error creating profile: %v", err)
		return h.renderCreateForm(w, http.StatusInternalServerError, form, createFailedAlert)
	}

	h.metrics.RecordCreated(r.Context(), "form")
	log.Printf("profile created id=%s slug=%s source=form", id, slug)
	http.Redirect(w, r, "/"+url.PathEscape(slug)+"?created="+url.QueryEscape(editToken), http.StatusSeeOther)
	return nil
}

func (h *PageHandler) EditFormHandler(w http.ResponseWriter, r *http.Request) error {
	profile, ok, err := h.editableProfile(w, r)
	if err != nil || !ok {
		return err
	}
	return h.renderEditForm(w, http.StatusOK, profile, formFromProfile(profile), "")
}

func (h *PageHandler) EditSubmitHandler(w http.ResponseWriter, r *http.Request) error {
	profile, ok, err := h.editableProfile(w, r)
	if err != nil || !ok {
		return err
	}

	form, err := parseProfileForm(r)
	form.Slug = profile.Slug
	if err != nil {
		log.Printf("Error parsing edit form: %v", err)
		return h.renderEditForm(w, http.StatusBadRequest, profile, form, updateFailedAlert)
	}
	if err := repository.ValidateInput(form.Input(profile.ProfileImage)); err != nil {
		return h.renderEditForm(w, http.StatusUnprocessableEntity, profile, form, updateFailedAlert)
	}

	imageRef, err := h.uploadPhoto(r)
	if err != nil {
		log.Printf("Error uploading profile photo: %v", err)
		return h.renderEditForm(w, http.StatusBadGateway, profile, form, updateFailedAlert)
	}
	if imageRef == "" {
		imageRef = profile.ProfileImage
	}

	err = h.profiles.Update(r.Context(), profile.ID, form.Input(imageRef))
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrInvalidProfile):
		return h.renderEditForm(w, http.StatusUnprocessableEntity, profile, form, updateFailedAlert)
	default:
		log.Printf("Error updating profile: %v", err)
		return h.renderEditForm(w, http.StatusInternalServerError, profile, form, updateFailedAlert)
	}

	http.Redirect(w, r, "/"+url.PathEscape(profile.Slug), http.StatusSeeOther)
	return nil
}

// ViewHandler renders the public card and counts the visit. Visitors coming
// from the QR code also count as a scan.
func (h *PageHandler) ViewHandler(w http.ResponseWriter, r *http.Request) error {
	profile, err := h.profiles.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		return err
	}
	if profile == nil {
		return h.renderer.Render(w, http.StatusNotFound, web.PageError, profileNotFoundPage)
	}

	if visits, found, err := h.profiles.IncrementVisits(r.Context(), profile.ID); err != nil {
		log.Printf("Error incrementing visits: id=%s err=%v", profile.ID, err)
	} else if found {
		profile.Visits = visits
		h.metrics.RecordVisit(r.Context())
	}
	if r.URL.Query().Get("src") == "qr" {
		if scans, found, err := h.profiles.IncrementQRScans(r.Context(), profile.ID); err != nil {
			log.Printf("Error incrementing QR scans: id=%s err=%v", profile.ID, err)
		} else if found {
			profile.QRCodeScans = scans
			h.metrics.RecordQRScan(r.Context())
		}
	}

	data := web.ProfileData{
		Profile:    profile.Public(),
		Links:      profile.SocialLinks.Links(),
		ImageURL:   h.storage.PublicURL(profile.ProfileImage),
		Initial:    web.Initial(profile.FullName),
		ProfileURL: card.ProfileURL(h.baseURL, profile.Slug, false),
		QRCodeURL:  "/" + url.PathEscape(profile.Slug) + "/qr.png",
		VCardURL:   "/" + url.PathEscape(profile.Slug) + "/vcard",
		Theme:      sanitizeTheme(profile.CustomTheme),
	}
	if created := r.URL.Query().Get("created"); created != "" && created == profile.EditToken {
		data.EditURL = h.baseURL + "/edit?token=" + url.QueryEscape(created)
	}
	w.Header().Set("Cache-Control", "no-store")
	return h.renderer.Render(w, http.StatusOK, web.PageProfile, data)
}

func (h *PageHandler) VCardHandler(w http.ResponseWriter, r *http.Request) error {
	profile, err := h.profiles.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		return err
	}
	if profile == nil {
		return h.renderer.Render(w, http.StatusNotFound, web.PageError, profileNotFoundPage)
	}

	data, err := card.VCard(profile)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": card.VCardFilename(profile.FullName),
	}))
	_, err = w.Write(data)
	return err
}

func (h *PageHandler) QRCodeHandler(w http.ResponseWriter, r *http.Request) error {
	profile, err := h.profiles.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		return err
	}
	if profile == nil {
		return h.renderer.Render(w, http.StatusNotFound, web.PageError, profileNotFoundPage)
	}

	png, err := card.QRCodePNG(card.ProfileURL(h.baseURL, profile.Slug, true))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, err = w.Write(png)
	return err
}

// editableProfile resolves the token query parameter. When it reports
// ok=false the invalid link page has already been written.
func (h *PageHandler) editableProfile(w http.ResponseWriter, r *http.Request) (*models.Profile, bool, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, false, h.renderer.Render(w, http.StatusBadRequest, web.PageError, invalidEditLinkPage)
	}
	profile, err := h.profiles.GetByEditToken(r.Context(), token)
	if err != nil {
		return nil, false, err
	}
	if profile == nil {
		return nil, false, h.renderer.Render(w, http.StatusNotFound, web.PageError, invalidEditLinkPage)
	}
	return profile, true, nil
}

// uploadPhoto stores the optional photo field and returns its storage id,
// or "" when no photo was sent.
func (h *PageHandler) uploadPhoto(r *http.Request) (string, error) {
	file, _, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}

	data, contentType := prepareImage(data)
	target, err := h.storage.GenerateUploadURL(r.Context())
	if err != nil {
		return "", err
	}
	if err := h.storage.Upload(r.Context(), target, data, contentType); err != nil {
		return "", err
	}
	return target.StorageID, nil
}

func (h *PageHandler) renderCreateForm(w http.ResponseWriter, status int, form ProfileForm, alert string) error {
	return h.renderer.Render(w, status, web.PageCreate, web.FormData{
		Action: "/create",
		Form:   form,
		Alert:  alert,
	})
}

func (h *PageHandler) renderEditForm(w http.ResponseWriter, status int, profile *models.Profile, form ProfileForm, alert string) error {
	return h.renderer.Render(w, status, web.PageEdit, web.FormData{
		Action:   "/edit?token=" + url.QueryEscape(profile.EditToken),
		Form:     form,
		ImageURL: h.storage.PublicURL(profile.ProfileImage),
		Alert:    alert,
	})
}
