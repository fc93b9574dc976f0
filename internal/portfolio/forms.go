package portfolio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned when a form is missing a required field.
var ErrInvalid = errors.New("invalid form")

// SplitList turns "a, b,,c" into [a b c].
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func required(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalid, strings.Join(missing, ", "))
	}
	return nil
}

// ProfileForm is the admin "Edit Info" form. Quick facts are entered without
// their prefixes and skills as a comma separated list.
type ProfileForm struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	HeroTitle    string `json:"heroTitle"`
	HeroSubtitle string `json:"heroSubtitle"`
	Email        string `json:"email"`
	Linkedin     string `json:"linkedin"`
	Location     string `json:"location"`
	Availability string `json:"availability"`
	Focus        string `json:"focus"`
	Skills       string `json:"skills"`
	AboutText    string `json:"aboutText"`
	Phone        string `json:"phone"`
}

// NewProfileForm prefills the form from the current content.
func NewProfileForm(p Profile, skills []string, aboutText string) ProfileForm {
	return ProfileForm{
		Name:         p.Name(),
		Role:         p.Role,
		HeroTitle:    p.HeroTitle,
		HeroSubtitle: p.HeroSubtitle,
		Email:        p.ContactEmail,
		Linkedin:     p.LinkedinURL,
		Location:     p.QuickFacts.Location(),
		Availability: p.QuickFacts.Availability(),
		Focus:        p.QuickFacts.Focus(),
		Skills:       strings.Join(skills, ", "),
		AboutText:    aboutText,
		Phone:        p.ContactPhone,
	}
}

// Validate requires every field except phone and skills.
func (f ProfileForm) Validate() error {
	return required(
		[2]string{"name", f.Name},
		[2]string{"role", f.Role},
		[2]string{"heroTitle", f.HeroTitle},
		[2]string{"heroSubtitle", f.HeroSubtitle},
		[2]string{"aboutText", f.AboutText},
		[2]string{"email", f.Email},
		[2]string{"linkedin", f.Linkedin},
		[2]string{"location", f.Location},
		[2]string{"availability", f.Availability},
		[2]string{"focus", f.Focus},
	)
}

// Profile builds the replacement profile.
func (f ProfileForm) Profile() Profile {
	return Profile{
		Title:        f.Name + titleSeparator + "Portfolio",
		Role:         f.Role,
		HeroTitle:    f.HeroTitle,
		HeroSubtitle: f.HeroSubtitle,
		ContactEmail: f.Email,
		LinkedinURL:  f.Linkedin,
		QuickFacts:   NewQuickFacts(f.Location, f.Availability, f.Focus),
		ContactPhone: f.Phone,
	}
}

func (f ProfileForm) SkillList() []string {
	return SplitList(f.Skills)
}

type ProjectForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	GithubURL   string `json:"githubUrl"`
	LiveURL     string `json:"liveUrl"`
	ImageURL    string `json:"imageUrl"`
}

func NewProjectForm(p Project) ProjectForm {
	return ProjectForm{
		Title:       p.Title,
		Description: p.Description,
		Tags:        strings.Join(p.Tags, ", "),
		GithubURL:   p.GithubURL,
		LiveURL:     p.LiveURL,
		ImageURL:    p.ImageURL,
	}
}

// Project builds the full replacement record for id.
func (f ProjectForm) Project(id string) (Project, error) {
	if err := required([2]string{"title", f.Title}); err != nil {
		return Project{}, err
	}
	return Project{
		ID:          id,
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Tags:        SplitList(f.Tags),
		GithubURL:   strings.TrimSpace(f.GithubURL),
		LiveURL:     strings.TrimSpace(f.LiveURL),
		ImageURL:    strings.TrimSpace(f.ImageURL),
	}, nil
}

type InternshipForm struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	Link        string `json:"link"`
}

func NewInternshipForm(i Internship) InternshipForm {
	return InternshipForm{
		Company:     i.Company,
		Role:        i.Role,
		Location:    i.Location,
		StartDate:   i.StartDate,
		EndDate:     i.EndDate,
		Description: i.Description,
		Tags:        strings.Join(i.Tags, ", "),
		Link:        i.Link,
	}
}

func (f InternshipForm) Internship(id string) (Internship, error) {
	err := required(
		[2]string{"company", f.Company},
		[2]string{"role", f.Role},
		[2]string{"startDate", f.StartDate},
		[2]string{"description", f.Description},
	)
	if err != nil {
		return Internship{}, err
	}
	return Internship{
		ID:          id,
		Company:     strings.TrimSpace(f.Company),
		Role:        strings.TrimSpace(f.Role),
		Location:    strings.TrimSpace(f.Location),
		StartDate:   strings.TrimSpace(f.StartDate),
		EndDate:     strings.TrimSpace(f.EndDate),
		Description: strings.TrimSpace(f.Description),
		Tags:        SplitList(f.Tags),
		Link:        strings.TrimSpace(f.Link),
	}, nil
}

type ServiceForm struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

func (f ServiceForm) Service(id string) (Service, error) {
	if err := required([2]string{"title", f.Title}); err != nil {
		return Service{}, err
	}
	icon := strings.TrimSpace(f.Icon)
	if icon == "" {
		icon = DefaultServiceIcon
	}
	return Service{
		ID:    id,
		Icon:  icon,
		Title: strings.TrimSpace(f.Title),
		Desc:  strings.TrimSpace(f.Desc),
	}, nil
}

// Normalize fills empty appearance fields with defaults and rejects unknown
// fit and theme values.
func (a Appearance) Normalize() (Appearance, error) {
	if a.ProfileTransform == "" {
		a.ProfileTransform = DefaultProfileTransform
	}
	switch a.ProfileObjectFit {
	case "":
		a.ProfileObjectFit = DefaultObjectFit
	case "contain", "cover":
	default:
		return Appearance{}, fmt.Errorf("%w: profileObjectFit must be contain or cover", ErrInvalid)
	}
	switch a.Theme {
	case "":
		a.Theme = DefaultTheme
	case "light", "dark":
	default:
		return Appearance{}, fmt.Errorf("%w: theme must be light or dark", ErrInvalid)
	}
	return a, nil
}
