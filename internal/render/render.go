// Package render builds the portfolio page from a content snapshot.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"

	"github.com/kalambet/folio/internal/admin"
	"github.com/kalambet/folio/internal/content"
	"github.com/kalambet/folio/internal/portfolio"
)

//go:embed templates/*.html
var templatesFS embed.FS

// transformPattern accepts CSS transform functions like "scale(1.2) translate(4px, -2px)".
var transformPattern = regexp.MustCompile(`^[a-zA-Z0-9().,%\s-]+$`)

// Bullets splits a description into sentences for list rendering.
func Bullets(desc string) []string {
	var out []string
	for _, s := range strings.Split(desc, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// imageStyle builds the inline style of the profile image. Values that do
// not look like a transform fall back to the default.
func imageStyle(a portfolio.Appearance) template.CSS {
	transform := a.ProfileTransform
	if !transformPattern.MatchString(transform) {
		transform = portfolio.DefaultProfileTransform
	}
	fit := a.ProfileObjectFit
	if fit != "cover" {
		fit = portfolio.DefaultObjectFit
	}
	return template.CSS("transform: " + transform + "; object-fit: " + fit)
}

// Page is the data the template renders.
type Page struct {
	content.Snapshot
	Admin      bool
	Name       string
	ImageStyle template.CSS

	// Admin only.
	ProfileForm   portfolio.ProfileForm
	NewProject    portfolio.ProjectForm
	NewInternship portfolio.InternshipForm
	NewService    portfolio.ServiceForm
}

// Renderer is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("page.html").Funcs(template.FuncMap{
		"bullets":        Bullets,
		"projectForm":    portfolio.NewProjectForm,
		"internshipForm": portfolio.NewInternshipForm,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page. Admin-only controls are left out for guests.
func (r *Renderer) Render(w io.Writer, snap content.Snapshot, state admin.State) error {
	p := Page{
		Snapshot:   snap,
		Admin:      state == admin.Admin,
		Name:       snap.Profile.Name(),
		ImageStyle: imageStyle(snap.Appearance),
	}
	if p.Admin {
		p.ProfileForm = portfolio.NewProfileForm(snap.Profile, snap.Skills, snap.AboutText)
	}
	return r.tmpl.ExecuteTemplate(w, "page.html", p)
}
