// Package gateway wraps the remote backend with folio's single-admin policy.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kalambet/folio/internal/appwrite"
	"github.com/kalambet/folio/internal/portfolio"
)

// SingletonID is the document id of the portfolio profile.
const SingletonID = "singleton"

var (
	// ErrUnauthorized is returned when the caller is not the configured admin.
	ErrUnauthorized = errors.New("unauthorized: only admin can perform this action")
	// ErrAdminNotConfigured is returned when no admin id is configured.
	ErrAdminNotConfigured = fmt.Errorf("%w: admin user id not configured", ErrUnauthorized)
)

// Backend is the subset of the Appwrite client the gateway needs.
type Backend interface {
	CreateEmailSession(ctx context.Context, email, password string) (*appwrite.Session, error)
	GetAccount(ctx context.Context) (*appwrite.User, error)
	DeleteSession(ctx context.Context, id string) error
	GetDocument(ctx context.Context, database, collection, id string, out any) error
	ListDocuments(ctx context.Context, database, collection string, queries ...string) ([]json.RawMessage, error)
	CreateDocument(ctx context.Context, database, collection, id string, data any) error
	UpdateDocument(ctx context.Context, database, collection, id string, data any) error
	DeleteDocument(ctx context.Context, database, collection, id string) error
}

// Config names the remote collections and the admin account.
type Config struct {
	DatabaseID            string
	CollectionPortfolio   string
	CollectionProjects    string
	CollectionInternships string
	AdminUserID           string
}

// Gateway is safe for concurrent use; the caller's session travels in ctx.
type Gateway struct {
	backend Backend
	cfg     Config
	logger  *slog.Logger
}

func New(backend Backend, cfg Config) *Gateway {
	return &Gateway{backend: backend, cfg: cfg, logger: slog.Default()}
}

// AdminUserID returns the configured admin id, empty when unset.
func (g *Gateway) AdminUserID() string { return g.cfg.AdminUserID }

// SignIn creates a session and keeps it only if it belongs to the admin.
// On success it returns the session secret and the signed-in user.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (string, *appwrite.User, error) {
	s, err := g.backend.CreateEmailSession(ctx, email, password)
	if err != nil {
		return "", nil, fmt.Errorf("creating session: %w", err)
	}
	sctx := appwrite.ContextWithSession(ctx, s.Secret)

	me, err := g.backend.GetAccount(sctx)
	if err != nil {
		g.dropSession(sctx)
		return "", nil, fmt.Errorf("fetching account: %w", err)
	}
	if g.cfg.AdminUserID == "" {
		g.dropSession(sctx)
		return "", nil, ErrAdminNotConfigured
	}
	if me.ID != g.cfg.AdminUserID {
		g.logger.Warn("sign-in rejected for non-admin user", "user_id", me.ID)
		g.dropSession(sctx)
		return "", nil, ErrUnauthorized
	}
	return s.Secret, me, nil
}

func (g *Gateway) dropSession(ctx context.Context) {
	if err := g.backend.DeleteSession(ctx, appwrite.CurrentSession); err != nil {
		g.logger.Warn("failed to delete rejected session", "error", err)
	}
}

// SignOut deletes the current session. Failures are ignored.
func (g *Gateway) SignOut(ctx context.Context) {
	if appwrite.SessionFromContext(ctx) == "" {
		return
	}
	if err := g.backend.DeleteSession(ctx, appwrite.CurrentSession); err != nil {
		g.logger.Debug("sign-out failed", "error", err)
	}
}

// CurrentIdentity returns the signed-in user, or nil on any failure.
func (g *Gateway) CurrentIdentity(ctx context.Context) *appwrite.User {
	if appwrite.SessionFromContext(ctx) == "" {
		return nil
	}
	me, err := g.backend.GetAccount(ctx)
	if err != nil {
		g.logger.Debug("no current identity", "error", err)
		return nil
	}
	return me
}

func (g *Gateway) assertAdmin(ctx context.Context) error {
	me := g.CurrentIdentity(ctx)
	if me == nil {
		return ErrUnauthorized
	}
	if g.cfg.AdminUserID == "" {
		return ErrAdminNotConfigured
	}
	if me.ID != g.cfg.AdminUserID {
		return ErrUnauthorized
	}
	return nil
}

// GetProfile fetches the singleton document, falling back to the first
// document of the collection. It returns nil when neither is available.
func (g *Gateway) GetProfile(ctx context.Context) *portfolio.Document {
	var doc portfolio.Document
	err := g.backend.GetDocument(ctx, g.cfg.DatabaseID, g.cfg.CollectionPortfolio, SingletonID, &doc)
	if err == nil {
		return &doc
	}
	g.logger.Debug("singleton document unavailable", "error", err)

	raw, err := g.backend.ListDocuments(ctx, g.cfg.DatabaseID, g.cfg.CollectionPortfolio, appwrite.Limit(1))
	if err != nil || len(raw) == 0 {
		if err != nil {
			g.logger.Debug("listing portfolio documents failed", "error", err)
		}
		return nil
	}
	if err := json.Unmarshal(raw[0], &doc); err != nil {
		g.logger.Warn("decoding portfolio document", "error", err)
		return nil
	}
	return &doc
}

// SaveProfile updates the singleton, creating it when the update fails.
func (g *Gateway) SaveProfile(ctx context.Context, doc portfolio.Document) error {
	if err := g.assertAdmin(ctx); err != nil {
		return err
	}
	err := g.backend.UpdateDocument(ctx, g.cfg.DatabaseID, g.cfg.CollectionPortfolio, SingletonID, doc)
	if err == nil {
		return nil
	}
	g.logger.Debug("updating singleton failed, creating", "error", err)
	if err := g.backend.CreateDocument(ctx, g.cfg.DatabaseID, g.cfg.CollectionPortfolio, SingletonID, doc); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// remoteProject carries the backend document id, which wins over the
// record's own id attribute.
type remoteProject struct {
	DocumentID string `json:"$id"`
	portfolio.Project
}

type remoteInternship struct {
	DocumentID string `json:"$id"`
	portfolio.Internship
}

func (g *Gateway) list(ctx context.Context, collection string) ([]json.RawMessage, error) {
	return g.backend.ListDocuments(ctx, g.cfg.DatabaseID, collection,
		appwrite.OrderDesc("$createdAt"), appwrite.Limit(100))
}

// ListProjects returns remote projects, newest first.
func (g *Gateway) ListProjects(ctx context.Context) ([]portfolio.Project, error) {
	raw, err := g.list(ctx, g.cfg.CollectionProjects)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	out := make([]portfolio.Project, 0, len(raw))
	for _, r := range raw {
		var rp remoteProject
		if err := json.Unmarshal(r, &rp); err != nil {
			return nil, fmt.Errorf("decoding project: %w", err)
		}
		if rp.DocumentID != "" {
			rp.ID = rp.DocumentID
		}
		out = append(out, rp.Project)
	}
	return out, nil
}

// ListInternships returns remote internships, newest first.
func (g *Gateway) ListInternships(ctx context.Context) ([]portfolio.Internship, error) {
	raw, err := g.list(ctx, g.cfg.CollectionInternships)
	if err != nil {
		return nil, fmt.Errorf("listing internships: %w", err)
	}
	out := make([]portfolio.Internship, 0, len(raw))
	for _, r := range raw {
		var ri remoteInternship
		if err := json.Unmarshal(r, &ri); err != nil {
			return nil, fmt.Errorf("decoding internship: %w", err)
		}
		if ri.DocumentID != "" {
			ri.ID = ri.DocumentID
		}
		out = append(out, ri.Internship)
	}
	return out, nil
}

func documentID(id string) string {
	if id == "" {
		return appwrite.UniqueID
	}
	return id
}

func (g *Gateway) create(ctx context.Context, collection, id string, data any) error {
	if err := g.assertAdmin(ctx); err != nil {
		return err
	}
	return g.backend.CreateDocument(ctx, g.cfg.DatabaseID, collection, documentID(id), data)
}

func (g *Gateway) update(ctx context.Context, collection, id string, data any) error {
	if err := g.assertAdmin(ctx); err != nil {
		return err
	}
	return g.backend.UpdateDocument(ctx, g.cfg.DatabaseID, collection, id, data)
}

func (g *Gateway) remove(ctx context.Context, collection, id string) error {
	if err := g.assertAdmin(ctx); err != nil {
		return err
	}
	return g.backend.DeleteDocument(ctx, g.cfg.DatabaseID, collection, id)
}

// projectDocument is the attribute set written for a project. Every
// attribute is always present so an update replaces the whole record.
type projectDocument struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	GithubURL   string   `json:"githubUrl"`
	LiveURL     string   `json:"liveUrl"`
	ImageURL    string   `json:"imageUrl"`
}

func newProjectDocument(p portfolio.Project) projectDocument {
	return projectDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Tags:        nonNil(p.Tags),
		GithubURL:   p.GithubURL,
		LiveURL:     p.LiveURL,
		ImageURL:    p.ImageURL,
	}
}

type internshipDocument struct {
	ID          string   `json:"id"`
	Company     string   `json:"company"`
	Role        string   `json:"role"`
	Location    string   `json:"location"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Link        string   `json:"link"`
}

func newInternshipDocument(i portfolio.Internship) internshipDocument {
	return internshipDocument{
		ID:          i.ID,
		Company:     i.Company,
		Role:        i.Role,
		Location:    i.Location,
		StartDate:   i.StartDate,
		EndDate:     i.EndDate,
		Description: i.Description,
		Tags:        nonNil(i.Tags),
		Link:        i.Link,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (g *Gateway) CreateProject(ctx context.Context, p portfolio.Project) error {
	return g.create(ctx, g.cfg.CollectionProjects, p.ID, newProjectDocument(p))
}

func (g *Gateway) UpdateProject(ctx context.Context, p portfolio.Project) error {
	return g.update(ctx, g.cfg.CollectionProjects, p.ID, newProjectDocument(p))
}

func (g *Gateway) DeleteProject(ctx context.Context, id string) error {
	return g.remove(ctx, g.cfg.CollectionProjects, id)
}

func (g *Gateway) CreateInternship(ctx context.Context, i portfolio.Internship) error {
	return g.create(ctx, g.cfg.CollectionInternships, i.ID, newInternshipDocument(i))
}

func (g *Gateway) UpdateInternship(ctx context.Context, i portfolio.Internship) error {
	return g.update(ctx, g.cfg.CollectionInternships, i.ID, newInternshipDocument(i))
}

func (g *Gateway) DeleteInternship(ctx context.Context, id string) error {
	return g.remove(ctx, g.cfg.CollectionInternships, id)
}
