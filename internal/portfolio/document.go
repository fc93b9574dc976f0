package portfolio

// Document is the remote shape of the singleton portfolio document. Pointer
// and slice fields are nil when the remote copy does not carry them, so a
// partial document only overrides what it contains.
type Document struct {
	Title        *string  `json:"title,omitempty"`
	Role         *string  `json:"role,omitempty"`
	HeroTitle    *string  `json:"heroTitle,omitempty"`
	HeroSubtitle *string  `json:"heroSubtitle,omitempty"`
	ContactEmail *string  `json:"contactEmail,omitempty"`
	LinkedinURL  *string  `json:"linkedinUrl,omitempty"`
	QuickFacts   []string `json:"quickFacts"`
	ContactPhone *string  `json:"contactPhone,omitempty"`
	Skills       []string `json:"skills"`
	AboutText    *string  `json:"aboutText,omitempty"`
}

// NewDocument builds the full document written on every profile save.
func NewDocument(p Profile, skills []string, aboutText string) Document {
	if skills == nil {
		skills = []string{}
	}
	return Document{
		Title:        &p.Title,
		Role:         &p.Role,
		HeroTitle:    &p.HeroTitle,
		HeroSubtitle: &p.HeroSubtitle,
		ContactEmail: &p.ContactEmail,
		LinkedinURL:  &p.LinkedinURL,
		QuickFacts:   []string{p.QuickFacts[0], p.QuickFacts[1], p.QuickFacts[2]},
		ContactPhone: &p.ContactPhone,
		Skills:       CloneStrings(skills),
		AboutText:    &aboutText,
	}
}

// MergeProfile overlays the fields present in d onto base. Quick facts are
// only taken when the remote list has exactly three entries.
func (d Document) MergeProfile(base Profile) Profile {
	out := base
	overlay(&out.Title, d.Title)
	overlay(&out.Role, d.Role)
	overlay(&out.HeroTitle, d.HeroTitle)
	overlay(&out.HeroSubtitle, d.HeroSubtitle)
	overlay(&out.ContactEmail, d.ContactEmail)
	overlay(&out.LinkedinURL, d.LinkedinURL)
	overlay(&out.ContactPhone, d.ContactPhone)
	if len(d.QuickFacts) == len(out.QuickFacts) {
		copy(out.QuickFacts[:], d.QuickFacts)
	}
	return out
}

func overlay(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
