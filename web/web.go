// Package web holds the server-rendered pages and their static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"unicode/utf8"

	"clickshare/models"
)

//go:embed templates/*.html static/*
var files embed.FS

const (
	PageHome    = "home.html"
	PageCreate  = "create.html"
	PageEdit    = "edit.html"
	PageProfile = "profile.html"
	PageError   = "error.html"
)

var pages = []string{PageHome, PageCreate, PageEdit, PageProfile, PageError}

var funcs = template.FuncMap{
	"displayURL": DisplayURL,
}

// Renderer executes the page templates. Each page is parsed together with
// the shared layout and partials.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/partials.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return &Renderer{templates: templates}, nil
}

// Render writes the page with the given status. The page is rendered into a
// buffer first so a template error never produces half a page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data interface{}) error {
	tmpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %s", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet and friends, to be mounted under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// HomeData backs the landing page.
type HomeData struct {
	Query string
}

// FormData backs both the create and the edit form.
type FormData struct {
	Action   string
	Form     interface{}
	ImageURL string
	Alert    string
}

// ProfileData backs the public card.
type ProfileData struct {
	Profile    models.Profile
	Links      []models.SocialLink
	ImageURL   string
	Initial    string
	ProfileURL string
	QRCodeURL  string
	VCardURL   string
	EditURL    string
	Theme      models.CustomTheme
}

// ErrorData backs every dead end: unknown profiles, bad edit links and
// unexpected failures.
type ErrorData struct {
	Heading  string
	Message  string
	LinkHref string
	LinkText string
}

// Initial is the first letter of the name, shown when there is no photo.
func Initial(fullName string) string {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}

// DisplayURL drops the scheme for display.
func DisplayURL(raw string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	return strings.TrimSuffix(trimmed, "/")
}
