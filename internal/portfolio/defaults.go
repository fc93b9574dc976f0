package portfolio

// Compiled-in content used until a local or remote copy exists.

const DefaultAboutText = "I am a developer focused on building fast, accessible, and maintainable web apps. " +
	"I enjoy designing APIs, optimizing databases, and shipping pixel-perfect UIs."

const (
	DefaultProfileTransform = "scale(1) translate(0px, 0px)"
	DefaultObjectFit        = "contain"
	DefaultTheme            = "light"
)

// DefaultServiceIcon is used when a service is saved without an icon.
const DefaultServiceIcon = "✨"

func DefaultProfile() Profile {
	return Profile{
		Title:        "Alex Morgan — Portfolio",
		Role:         "Full-Stack Developer",
		HeroTitle:    "I build reliable web products end to end.",
		HeroSubtitle: "APIs, data plumbing and interfaces people enjoy using.",
		ContactEmail: "hello@example.com",
		LinkedinURL:  "https://www.linkedin.com/in/example",
		QuickFacts:   NewQuickFacts("Remote", "Open to work", "Backend & Web"),
	}
}

func DefaultSkills() []string {
	return []string{"Go", "TypeScript", "React", "PostgreSQL", "SQLite", "Docker", "REST APIs", "Git"}
}

func DefaultProjects() []Project {
	return []Project{
		{
			ID:          "p-1",
			Title:       "Portfolio CMS",
			Description: "Single-admin content editing. Local-first storage with remote sync.",
			Tags:        []string{"Go", "SQLite"},
			GithubURL:   "https://github.com/example/portfolio",
		},
		{
			ID:          "p-2",
			Title:       "Link Shortener",
			Description: "Short links with click tracking. Privacy-friendly visitor stats.",
			Tags:        []string{"Go", "HTMX"},
		},
	}
}

func DefaultInternships() []Internship {
	return []Internship{
		{
			ID:          "int-1",
			Company:     "Example Labs",
			Role:        "Software Engineering Intern",
			Location:    "Remote",
			StartDate:   "Jun 2024",
			EndDate:     "Sep 2024",
			Description: "Built internal dashboards. Wrote integration tests for the billing API.",
			Tags:        []string{"Go", "React"},
		},
	}
}

func DefaultServices() []Service {
	return []Service{
		{ID: "s-1", Icon: "💻", Title: "Web Development", Desc: "Custom websites with modern stacks."},
		{ID: "s-2", Icon: "📱", Title: "Mobile Apps", Desc: "iOS/Android with RN/Flutter."},
		{ID: "s-3", Icon: "🎨", Title: "UI/UX Design", Desc: "User-centered, beautiful interfaces."},
		{ID: "s-4", Icon: "📝", Title: "CV Writing", Desc: "Stand-out resumes and profiles."},
		{ID: "s-5", Icon: "✉️", Title: "Cover Letters", Desc: "Tailored, compelling letters."},
		{ID: "s-6", Icon: "🚀", Title: "SEO Optimization", Desc: "Better visibility and ranking."},
	}
}

func DefaultAppearance() Appearance {
	return Appearance{
		ProfileTransform: DefaultProfileTransform,
		ProfileObjectFit: DefaultObjectFit,
		Theme:            DefaultTheme,
	}
}
