package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"clickshare/models"

	"github.com/gorilla/schema"
)

const maxFormMemory = 32 << 20

var (
	formDecoder = newFormDecoder()
	hexColor    = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// ProfileForm is the create and edit form as posted by the browser.
type ProfileForm struct {
	Slug            string `schema:"slug"`
	FullName        string `schema:"full_name"`
	JobTitle        string `schema:"job_title"`
	Company         string `schema:"company"`
	Email           string `schema:"email"`
	Phone           string `schema:"phone"`
	Website         string `schema:"website"`
	Bio             string `schema:"bio"`
	LinkedIn        string `schema:"linkedin"`
	Twitter         string `schema:"twitter"`
	GitHub          string `schema:"github"`
	Instagram       string `schema:"instagram"`
	Mastodon        string `schema:"mastodon"`
	Bluesky         string `schema:"bluesky"`
	WhatsApp        string `schema:"whatsapp"`
	Signal          string `schema:"signal"`
	Telegram        string `schema:"telegram"`
	PrimaryColor    string `schema:"primary_color"`
	BackgroundColor string `schema:"background_color"`
}

func newFormDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}

// parseProfileForm accepts both multipart and urlencoded submissions.
func parseProfileForm(r *http.Request) (ProfileForm, error) {
	var form ProfileForm
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return form, err
	}
	if err := formDecoder.Decode(&form, r.PostForm); err != nil {
		return form, err
	}
	return form, nil
}

// Input converts the form into repository input. Theme colours that are not
// hex colours are dropped.
func (f ProfileForm) Input(profileImage string) models.ProfileInput {
	return models.ProfileInput{
		FullName:     strings.TrimSpace(f.FullName),
		JobTitle:     strings.TrimSpace(f.JobTitle),
		Company:      strings.TrimSpace(f.Company),
		ProfileImage: profileImage,
		Bio:          strings.TrimSpace(f.Bio),
		Email:        strings.TrimSpace(f.Email),
		Phone:        strings.TrimSpace(f.Phone),
		Website:      strings.TrimSpace(f.Website),
		SocialLinks: models.SocialLinks{
			LinkedIn:  strings.TrimSpace(f.LinkedIn),
			Twitter:   strings.TrimSpace(f.Twitter),
			GitHub:    strings.TrimSpace(f.GitHub),
			Instagram: strings.TrimSpace(f.Instagram),
			Mastodon:  strings.TrimSpace(f.Mastodon),
			Bluesky:   strings.TrimSpace(f.Bluesky),
			WhatsApp:  strings.TrimSpace(f.WhatsApp),
			Signal:    strings.TrimSpace(f.Signal),
			Telegram:  strings.TrimSpace(f.Telegram),
		},
		CustomTheme: sanitizeTheme(models.CustomTheme{
			PrimaryColor:    strings.TrimSpace(f.PrimaryColor),
			BackgroundColor: strings.TrimSpace(f.BackgroundColor),
		}),
	}
}

func formFromProfile(profile *models.Profile) ProfileForm {
	return ProfileForm{
		Slug:            profile.Slug,
		FullName:        profile.FullName,
		JobTitle:        profile.JobTitle,
		Company:         profile.Company,
		Email:           profile.Email,
		Phone:           profile.Phone,
		Website:         profile.Website,
		Bio:             profile.Bio,
		LinkedIn:        profile.SocialLinks.LinkedIn,
		Twitter:         profile.SocialLinks.Twitter,
		GitHub:          profile.SocialLinks.GitHub,
		Instagram:       profile.SocialLinks.Instagram,
		Mastodon:        profile.SocialLinks.Mastodon,
		Bluesky:         profile.SocialLinks.Bluesky,
		WhatsApp:        profile.SocialLinks.WhatsApp,
		Signal:          profile.SocialLinks.Signal,
		Telegram:        profile.SocialLinks.Telegram,
		PrimaryColor:    profile.CustomTheme.PrimaryColor,
		BackgroundColor: profile.CustomTheme.BackgroundColor,
	}
}

func sanitizeTheme(theme models.CustomTheme) models.CustomTheme {
	if !hexColor.MatchString(theme.PrimaryColor) {
		theme.PrimaryColor = ""
	}
	if !hexColor.MatchString(theme.BackgroundColor) {
		theme.BackgroundColor = ""
	}
	return theme
}
