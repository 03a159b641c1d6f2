package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Profile is a digital business card. Slug and EditToken never change after
// creation; Visits and QRCodeScans only ever grow by one.
type Profile struct {
	ID           string      `json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	FullName     string      `json:"full_name"`
	JobTitle     string      `json:"job_title"`
	Company      string      `json:"company"`
	ProfileImage string      `json:"profile_image,omitempty"`
	Bio          string      `json:"bio"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Website      string      `json:"website,omitempty"`
	SocialLinks  SocialLinks `json:"social_links"`
	CustomTheme  CustomTheme `json:"custom_theme"`
	Slug         string      `json:"slug"`
	EditToken    string      `json:"edit_token,omitempty"`
	Visits       int64       `json:"visits"`
	QRCodeScans  int64       `json:"qr_code_scans"`
}

// Public returns a copy safe to hand to anyone who only knows the slug.
func (p Profile) Public() Profile {
	p.EditToken = ""
	return p
}

// ProfileInput carries every mutable attribute of a profile. Create and
// update both take the full set. Company and bio may be blank.
type ProfileInput struct {
	FullName     string      `json:"full_name" validate:"required,notblank"`
	JobTitle     string      `json:"job_title" validate:"required,notblank"`
	Company      string      `json:"company"`
	ProfileImage string      `json:"profile_image,omitempty"`
	Bio          string      `json:"bio"`
	Email        string      `json:"email" validate:"required,notblank"`
	Phone        string      `json:"phone" validate:"required,notblank"`
	Website      string      `json:"website,omitempty"`
	SocialLinks  SocialLinks `json:"social_links"`
	CustomTheme  CustomTheme `json:"custom_theme"`
}

// Input extracts the mutable attributes of an existing profile.
func (p Profile) Input() ProfileInput {
	return ProfileInput{
		FullName:     p.FullName,
		JobTitle:     p.JobTitle,
		Company:      p.Company,
		ProfileImage: p.ProfileImage,
		Bio:          p.Bio,
		Email:        p.Email,
		Phone:        p.Phone,
		Website:      p.Website,
		SocialLinks:  p.SocialLinks,
		CustomTheme:  p.CustomTheme,
	}
}

type SocialLinks struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Mastodon  string `json:"mastodon,omitempty"`
	Bluesky   string `json:"bluesky,omitempty"`
	WhatsApp  string `json:"whatsapp,omitempty"`
	Signal    string `json:"signal,omitempty"`
	Telegram  string `json:"telegram,omitempty"`
}

// SocialLink is one rendered entry of SocialLinks.
type SocialLink struct {
	Platform string
	Label    string
	URL      string
}

// Links lists the configured platforms in display order.
func (s SocialLinks) Links() []SocialLink {
	all := []SocialLink{
		{Platform: "linkedin", Label: "LinkedIn", URL: s.LinkedIn},
		{Platform: "twitter", Label: "Twitter", URL: s.Twitter},
		{Platform: "github", Label: "GitHub", URL: s.GitHub},
		{Platform: "instagram", Label: "Instagram", URL: s.Instagram},
		{Platform: "mastodon", Label: "Mastodon", URL: s.Mastodon},
		{Platform: "bluesky", Label: "Bluesky", URL: s.Bluesky},
		{Platform: "whatsapp", Label: "WhatsApp", URL: s.WhatsApp},
		{Platform: "signal", Label: "Signal", URL: s.Signal},
		{Platform: "telegram", Label: "Telegram", URL: s.Telegram},
	}
	links := make([]SocialLink, 0, len(all))
	for _, link := range all {
		if link.URL != "" {
			links = append(links, link)
		}
	}
	return links
}

func (s SocialLinks) Value() (driver.Value, error) {
	return marshalJSONB(s)
}

func (s *SocialLinks) Scan(src any) error {
	return unmarshalJSONB(src, s)
}

type CustomTheme struct {
	PrimaryColor    string `json:"primary_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
}

func (c CustomTheme) Value() (driver.Value, error) {
	return marshalJSONB(c)
}

func (c *CustomTheme) Scan(src any) error {
	return unmarshalJSONB(src, c)
}

func marshalJSONB(v any) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalJSONB(src any, dst any) error {
	switch value := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(value) == 0 {
			return nil
		}
		return json.Unmarshal(value, dst)
	case string:
		if value == "" {
			return nil
		}
		return json.Unmarshal([]byte(value), dst)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", src)
	}
}
