// Package portfolio defines the records that make up the portfolio site.
package portfolio

import "strings"

// Quick fact prefixes, in their fixed order.
const (
	PrefixLocation     = "Location: "
	PrefixAvailability = "Availability: "
	PrefixFocus        = "Focus: "
)

// titleSeparator splits the display name from the rest of Profile.Title.
const titleSeparator = " — "

// QuickFacts is always location, availability, focus.
type QuickFacts [3]string

// NewQuickFacts builds the prefixed triple.
func NewQuickFacts(location, availability, focus string) QuickFacts {
	return QuickFacts{
		PrefixLocation + location,
		PrefixAvailability + availability,
		PrefixFocus + focus,
	}
}

func (q QuickFacts) Location() string     { return strings.TrimPrefix(q[0], PrefixLocation) }
func (q QuickFacts) Availability() string { return strings.TrimPrefix(q[1], PrefixAvailability) }
func (q QuickFacts) Focus() string        { return strings.TrimPrefix(q[2], PrefixFocus) }

// Profile is the singleton site configuration.
type Profile struct {
	Title        string     `json:"title"`
	Role         string     `json:"role"`
	HeroTitle    string     `json:"heroTitle"`
	HeroSubtitle string     `json:"heroSubtitle"`
	ContactEmail string     `json:"contactEmail"`
	LinkedinURL  string     `json:"linkedinUrl"`
	QuickFacts   QuickFacts `json:"quickFacts"`
	ContactPhone string     `json:"contactPhone,omitempty"`
}

// Name returns the display name, i.e. Title up to " — ".
func (p Profile) Name() string {
	name, _, _ := strings.Cut(p.Title, titleSeparator)
	return name
}

type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	GithubURL   string   `json:"githubUrl,omitempty"`
	LiveURL     string   `json:"liveUrl,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

type Internship struct {
	ID          string   `json:"id"`
	Company     string   `json:"company"`
	Role        string   `json:"role"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate,omitempty"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Link        string   `json:"link,omitempty"`
}

// Period renders the date range; a missing end date means the role is ongoing.
func (i Internship) Period() string {
	end := i.EndDate
	if end == "" {
		end = "Present"
	}
	return i.StartDate + " – " + end
}

// Service is only kept locally.
type Service struct {
	ID    string `json:"id"`
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// Appearance holds presentation-only settings of the profile image and page.
type Appearance struct {
	ProfileTransform string `json:"profileTransform"`
	ProfileObjectFit string `json:"profileObjectFit"` // "contain" or "cover"
	Theme            string `json:"theme"`            // "light" or "dark"
}

// CloneStrings copies a string slice, keeping nil as nil.
func CloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Clone returns a deep copy.
func (p Project) Clone() Project {
	p.Tags = CloneStrings(p.Tags)
	return p
}

// Clone returns a deep copy.
func (i Internship) Clone() Internship {
	i.Tags = CloneStrings(i.Tags)
	return i
}
