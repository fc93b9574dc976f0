// Package content holds the live portfolio content: an in-memory copy seeded
// from the local store, written through on every edit and mirrored remotely.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/kalambet/folio/internal/appwrite"
	"github.com/kalambet/folio/internal/localstore"
	"github.com/kalambet/folio/internal/mirror"
	"github.com/kalambet/folio/internal/portfolio"
)

var (
	// ErrNotFound is returned when an id does not match any record.
	ErrNotFound = errors.New("record not found")
	// ErrInvalid is returned for forms missing required fields.
	ErrInvalid = portfolio.ErrInvalid
)

// Remote is the backend gateway the store reconciles from and mirrors to.
type Remote interface {
	GetProfile(ctx context.Context) *portfolio.Document
	SaveProfile(ctx context.Context, doc portfolio.Document) error
	ListProjects(ctx context.Context) ([]portfolio.Project, error)
	CreateProject(ctx context.Context, p portfolio.Project) error
	UpdateProject(ctx context.Context, p portfolio.Project) error
	DeleteProject(ctx context.Context, id string) error
	ListInternships(ctx context.Context) ([]portfolio.Internship, error)
	CreateInternship(ctx context.Context, i portfolio.Internship) error
	UpdateInternship(ctx context.Context, i portfolio.Internship) error
	DeleteInternship(ctx context.Context, id string) error
}

// Mirror schedules remote writes.
type Mirror interface {
	Enqueue(ctx context.Context, t mirror.Task)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Snapshot is a deep copy of everything the page renders.
type Snapshot struct {
	Profile     portfolio.Profile      `json:"profile"`
	Skills      []string               `json:"skills"`
	AboutText   string                 `json:"aboutText"`
	Projects    []portfolio.Project    `json:"projects"`
	Internships []portfolio.Internship `json:"internships"`
	Services    []portfolio.Service    `json:"services"`
	Appearance  portfolio.Appearance   `json:"appearance"`
}

// Store is safe for concurrent use.
type Store struct {
	local  *localstore.Adapter
	remote Remote
	mirror Mirror
	clock  Clock
	logger *slog.Logger

	mu          sync.RWMutex
	profile     portfolio.Profile
	skills      []string
	aboutText   string
	projects    []portfolio.Project
	internships []portfolio.Internship
	services    []portfolio.Service
	appearance  portfolio.Appearance
}

// New seeds a Store from local, falling back to the compiled-in defaults.
func New(local *localstore.Adapter, remote Remote, m Mirror) *Store {
	return NewWithClock(local, remote, m, realClock{})
}

// NewWithClock creates a Store with a custom clock (for testing).
func NewWithClock(local *localstore.Adapter, remote Remote, m Mirror, clock Clock) *Store {
	s := &Store{
		local:  local,
		remote: remote,
		mirror: m,
		clock:  clock,
		logger: slog.Default(),
	}
	s.profile = localstore.Get(local, localstore.KeyPortfolioData, portfolio.DefaultProfile())
	s.skills = localstore.Get(local, localstore.KeySkills, portfolio.DefaultSkills())
	s.aboutText = localstore.Get(local, localstore.KeyAboutText, portfolio.DefaultAboutText)
	s.projects = localstore.Get(local, localstore.KeyProjects, portfolio.DefaultProjects())
	s.internships = localstore.Get(local, localstore.KeyInternships, portfolio.DefaultInternships())
	s.services = localstore.Get(local, localstore.KeyServices, portfolio.DefaultServices())
	s.appearance = portfolio.Appearance{
		ProfileTransform: localstore.Get(local, localstore.KeyProfileTransform, portfolio.DefaultProfileTransform),
		ProfileObjectFit: localstore.Get(local, localstore.KeyProfileObjectFit, portfolio.DefaultObjectFit),
		Theme:            localstore.Get(local, localstore.KeyTheme, portfolio.DefaultTheme),
	}
	return s
}

// Reconcile pulls the remote copy of each entity. Entities are independent:
// a remote failure or an empty result leaves that entity as it is.
func (s *Store) Reconcile(ctx context.Context) {
	if doc := s.remote.GetProfile(ctx); doc != nil {
		s.mu.Lock()
		s.profile = doc.MergeProfile(s.profile)
		s.local.Set(localstore.KeyPortfolioData, s.profile)
		if doc.Skills != nil {
			s.skills = portfolio.CloneStrings(doc.Skills)
			s.local.Set(localstore.KeySkills, s.skills)
		}
		if doc.AboutText != nil {
			s.aboutText = *doc.AboutText
			s.local.Set(localstore.KeyAboutText, s.aboutText)
		}
		s.mu.Unlock()
	}

	if projects, err := s.remote.ListProjects(ctx); err != nil {
		s.logger.Warn("reconciling projects failed", "error", err)
	} else if len(projects) > 0 {
		s.mu.Lock()
		s.projects = projects
		s.local.Set(localstore.KeyProjects, s.projects)
		s.mu.Unlock()
	}

	if internships, err := s.remote.ListInternships(ctx); err != nil {
		s.logger.Warn("reconciling internships failed", "error", err)
	} else if len(internships) > 0 {
		s.mu.Lock()
		s.internships = internships
		s.local.Set(localstore.KeyInternships, s.internships)
		s.mu.Unlock()
	}
}

// Snapshot returns a deep copy of the current content.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Profile:     s.profile,
		Skills:      portfolio.CloneStrings(s.skills),
		AboutText:   s.aboutText,
		Projects:    make([]portfolio.Project, len(s.projects)),
		Internships: make([]portfolio.Internship, len(s.internships)),
		Services:    make([]portfolio.Service, len(s.services)),
		Appearance:  s.appearance,
	}
	for i, p := range s.projects {
		snap.Projects[i] = p.Clone()
	}
	for i, in := range s.internships {
		snap.Internships[i] = in.Clone()
	}
	copy(snap.Services, s.services)
	return snap
}

// newID returns prefix-<unix millis>, bumped until it is unused.
func (s *Store) newID(prefix string, taken func(string) bool) string {
	ms := s.clock.Now().UnixMilli()
	for {
		id := prefix + strconv.FormatInt(ms, 10)
		if !taken(id) {
			return id
		}
		ms++
	}
}

// ignoreNotFound treats a remote 404 on delete as already done.
func ignoreNotFound(err error) error {
	if appwrite.IsNotFound(err) {
		return nil
	}
	return err
}

// --- Profile ---

// SaveProfile replaces the profile, skills and about text.
func (s *Store) SaveProfile(ctx context.Context, f portfolio.ProfileForm) error {
	if err := f.Validate(); err != nil {
		return err
	}
	profile := f.Profile()
	skills := f.SkillList()

	s.mu.Lock()
	s.profile = profile
	s.skills = skills
	s.aboutText = f.AboutText
	s.local.Set(localstore.KeyPortfolioData, profile)
	s.local.Set(localstore.KeySkills, skills)
	s.local.Set(localstore.KeyAboutText, f.AboutText)
	s.mu.Unlock()

	doc := portfolio.NewDocument(profile, skills, f.AboutText)
	s.mirror.Enqueue(ctx, mirror.Task{Entity: "profile", Op: "save", Run: func(ctx context.Context) error {
		return s.remote.SaveProfile(ctx, doc)
	}})
	return nil
}

// SetAppearance stores presentation settings. They are never mirrored.
func (s *Store) SetAppearance(a portfolio.Appearance) (portfolio.Appearance, error) {
	a, err := a.Normalize()
	if err != nil {
		return portfolio.Appearance{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appearance = a
	s.local.Set(localstore.KeyProfileTransform, a.ProfileTransform)
	s.local.Set(localstore.KeyProfileObjectFit, a.ProfileObjectFit)
	s.local.Set(localstore.KeyTheme, a.Theme)
	return a, nil
}

// --- Projects ---

func projectIndex(list []portfolio.Project, id string) int {
	for i, p := range list {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// AddProject prepends a new project.
func (s *Store) AddProject(ctx context.Context, f portfolio.ProjectForm) (portfolio.Project, error) {
	s.mu.Lock()
	id := s.newID("p-", func(id string) bool { return projectIndex(s.projects, id) >= 0 })
	p, err := f.Project(id)
	if err != nil {
		s.mu.Unlock()
		return portfolio.Project{}, err
	}
	s.projects = append([]portfolio.Project{p}, s.projects...)
	s.local.Set(localstore.KeyProjects, s.projects)
	s.mu.Unlock()

	remote := p.Clone()
	s.mirror.Enqueue(ctx, mirror.Task{Entity: "project", Op: "create", TargetID: p.ID, Run: func(ctx context.Context) error {
		return s.remote.CreateProject(ctx, remote)
	}})
	return p.Clone(), nil
}

// UpdateProject replaces the project with id in place.
func (s *Store) UpdateProject(ctx context.Context, id string, f portfolio.ProjectForm) (portfolio.Project, error) {
	p, err := f.Project(id)
	if err != nil {
		return portfolio.Project{}, err
	}

	s.mu.Lock()
	i := projectIndex(s.projects, id)
	if i < 0 {
		s.mu.Unlock()
		return portfolio.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	s.projects[i] = p
	s.local.Set(localstore.KeyProjects, s.projects)
	s.mu.Unlock()

	remote := p.Clone()
	s.mirror.Enqueue(ctx, mirror.Task{Entity: "project", Op: "update", TargetID: id, Run: func(ctx context.Context) error {
		return s.remote.UpdateProject(ctx, remote)
	}})
	return p.Clone(), nil
}

// DeleteProject removes one project, keeping the order of the rest.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	i := projectIndex(s.projects, id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	s.projects = append(s.projects[:i:i], s.projects[i+1:]...)
	s.local.Set(localstore.KeyProjects, s.projects)
	s.mu.Unlock()

	s.enqueueProjectDelete(ctx, id)
	return nil
}

// DeleteAllProjects empties the list and returns how many were removed.
func (s *Store) DeleteAllProjects(ctx context.Context) int {
	s.mu.Lock()
	removed := s.projects
	s.projects = []portfolio.Project{}
	s.local.Set(localstore.KeyProjects, s.projects)
	s.mu.Unlock()

	for _, p := range removed {
		s.enqueueProjectDelete(ctx, p.ID)
	}
	return len(removed)
}

func (s *Store) enqueueProjectDelete(ctx context.Context, id string) {
	s.mirror.Enqueue(ctx, mirror.Task{Entity: "project", Op: "delete", TargetID: id, Run: func(ctx context.Context) error {
		return ignoreNotFound(s.remote.DeleteProject(ctx, id))
	}})
}

// --- Internships ---

func internshipIndex(list []portfolio.Internship, id string) int {
	for i, in := range list {
		if in.ID == id {
			return i
		}
	}
	return -1
}

// AddInternship prepends a new internship.
func (s *Store) AddInternship(ctx context.Context, f portfolio.InternshipForm) (portfolio.Internship, error) {
	s.mu.Lock()
	id := s.newID("int-", func(id string) bool { return internshipIndex(s.internships, id) >= 0 })
	in, err := f.Internship(id)
	if err != nil {
		s.mu.Unlock()
		return portfolio.Internship{}, err
	}
	s.internships = append([]portfolio.Internship{in}, s.internships...)
	s.local.Set(localstore.KeyInternships, s.internships)
	s.mu.Unlock()

	remote := in.Clone()
	s.mirror.Enqueue(ctx, mirror.Task{Entity: "internship", Op: "create", TargetID: in.ID, Run: func(ctx context.Context) error {
		return s.remote.CreateInternship(ctx, remote)
	}})
	return in.Clone(), nil
}

func (s *Store) UpdateInternship(ctx context.Context, id string, f portfolio.InternshipForm) (portfolio.Internship, error) {
	in, err := f.Internship(id)
	if err != nil {
		return portfolio.Internship{}, err
	}

	s.mu.Lock()
	i := internshipIndex(s.internships, id)
	if i < 0 {
		s.mu.Unlock()
		return portfolio.Internship{}, fmt.Errorf("internship %s: %w", id, ErrNotFound)
	}
	s.internships[i] = in
	s.local.Set(localstore.KeyInternships, s.internships)
	s.mu.Unlock()

	remote := in.Clone()
	s.mirror.Enqueue(ctx, mirror.Task{Entity: "internship", Op: "update", TargetID: id, Run: func(ctx context.Context) error {
		return s.remote.UpdateInternship(ctx, remote)
	}})
	return in.Clone(), nil
}

func (s *Store) DeleteInternship(ctx context.Context, id string) error {
	s.mu.Lock()
	i := internshipIndex(s.internships, id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("internship %s: %w", id, ErrNotFound)
	}
	s.internships = append(s.internships[:i:i], s.internships[i+1:]...)
	s.local.Set(localstore.KeyInternships, s.internships)
	s.mu.Unlock()

	s.enqueueInternshipDelete(ctx, id)
	return nil
}

func (s *Store) DeleteAllInternships(ctx context.Context) int {
	s.mu.Lock()
	removed := s.internships
	s.internships = []portfolio.Internship{}
	s.local.Set(localstore.KeyInternships, s.internships)
	s.mu.Unlock()

	for _, in := range removed {
		s.enqueueInternshipDelete(ctx, in.ID)
	}
	return len(removed)
}

func (s *Store) enqueueInternshipDelete(ctx context.Context, id string) {
	s.mirror.Enqueue(ctx, mirror.Task{Entity: "internship", Op: "delete", TargetID: id, Run: func(ctx context.Context) error {
		return ignoreNotFound(s.remote.DeleteInternship(ctx, id))
	}})
}

// --- Services (local only) ---

func serviceIndex(list []portfolio.Service, id string) int {
	for i, sv := range list {
		if sv.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) AddService(f portfolio.ServiceForm) (portfolio.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID("sv-", func(id string) bool { return serviceIndex(s.services, id) >= 0 })
	sv, err := f.Service(id)
	if err != nil {
		return portfolio.Service{}, err
	}
	s.services = append([]portfolio.Service{sv}, s.services...)
	s.local.Set(localstore.KeyServices, s.services)
	return sv, nil
}

func (s *Store) UpdateService(id string, f portfolio.ServiceForm) (portfolio.Service, error) {
	sv, err := f.Service(id)
	if err != nil {
		return portfolio.Service{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := serviceIndex(s.services, id)
	if i < 0 {
		return portfolio.Service{}, fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	s.services[i] = sv
	s.local.Set(localstore.KeyServices, s.services)
	return sv, nil
}

func (s *Store) DeleteService(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := serviceIndex(s.services, id)
	if i < 0 {
		return fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	s.services = append(s.services[:i:i], s.services[i+1:]...)
	s.local.Set(localstore.KeyServices, s.services)
	return nil
}

func (s *Store) DeleteAllServices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.services)
	s.services = []portfolio.Service{}
	s.local.Set(localstore.KeyServices, s.services)
	return n
}

// --- Export ---

func exportJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// ExportProjects returns the projects as indented JSON.
func (s *Store) ExportProjects() ([]byte, error) {
	return exportJSON(s.Snapshot().Projects)
}

func (s *Store) ExportInternships() ([]byte, error) {
	return exportJSON(s.Snapshot().Internships)
}

func (s *Store) ExportServices() ([]byte, error) {
	return exportJSON(s.Snapshot().Services)
}
