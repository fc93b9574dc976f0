package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/folio/internal/content"
	"github.com/kalambet/folio/internal/portfolio"
)

func handleSaveProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f portfolio.ProfileForm
		if !decodeBody(w, r, &f) {
			return
		}
		if err := deps.Content.SaveProfile(r.Context(), f); err != nil {
			contentError(w, err)
			return
		}
		snap := deps.Content.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"profile":   snap.Profile,
			"skills":    snap.Skills,
			"aboutText": snap.AboutText,
		})
	}
}

func handleSetAppearance(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a portfolio.Appearance
		if !decodeBody(w, r, &a) {
			return
		}
		a, err := deps.Content.SetAppearance(a)
		if err != nil {
			contentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// collection adapts one list of records to the generic CRUD routes.
type collection struct {
	add       func(ctx context.Context, body json.RawMessage) (any, error)
	update    func(ctx context.Context, id string, body json.RawMessage) (any, error)
	remove    func(ctx context.Context, id string) error
	removeAll func(ctx context.Context) int
	export    func() ([]byte, error)
}

func decodeForm(body json.RawMessage, f any) error {
	if err := json.Unmarshal(body, f); err != nil {
		return fmt.Errorf("%w: %v", content.ErrInvalid, err)
	}
	return nil
}

func collections(deps Deps) map[string]collection {
	c := deps.Content
	return map[string]collection{
		"projects": {
			add: func(ctx context.Context, body json.RawMessage) (any, error) {
				var f portfolio.ProjectForm
				if err := decodeForm(body, &f); err != nil {
					return nil, err
				}
				return c.AddProject(ctx, f)
			},
			update: func(ctx context.Context, id string, body json.RawMessage) (any, error) {
				var f portfolio.ProjectForm
				if err := decodeForm(body, &f); err != nil {
					return nil, err
				}
				return c.UpdateProject(ctx, id, f)
			},
			remove:    c.DeleteProject,
			removeAll: c.DeleteAllProjects,
			export:    c.ExportProjects,
		},
		"internships": {
			add: func(ctx context.Context, body json.RawMessage) (any, error) {
				var f portfolio.InternshipForm
				if err := decodeForm(body, &f); err != nil {
					return nil, err
				}
				return c.AddInternship(ctx, f)
			},
			update: func(ctx context.Context, id string, body json.RawMessage) (any, error) {
				var f portfolio.InternshipForm
				if err := decodeForm(body, &f); err != nil {
					return nil, err
				}
				return c.UpdateInternship(ctx, id, f)
			},
			remove:    c.DeleteInternship,
			removeAll: c.DeleteAllInternships,
			export:    c.ExportInternships,
		},
		"services": {
			add: func(_ context.Context, body json.RawMessage) (any, error) {
				var f portfolio.ServiceForm
				if err := decodeForm(body, &f); err != nil {
					return nil, err
				}
				return c.AddService(f)
			},
			update: func(_ context.Context, id string, body json.RawMessage) (any, error) {
				var f portfolio.ServiceForm
				if err := decodeForm(body, &f); err != nil {
					return nil, err
				}
				return c.UpdateService(id, f)
			},
			remove:    func(_ context.Context, id string) error { return c.DeleteService(id) },
			removeAll: func(context.Context) int { return c.DeleteAllServices() },
			export:    c.ExportServices,
		},
	}
}

func handleAdd(c collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if !decodeBody(w, r, &body) {
			return
		}
		rec, err := c.add(r.Context(), body)
		if err != nil {
			contentError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func handleUpdate(c collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if !decodeBody(w, r, &body) {
			return
		}
		rec, err := c.update(r.Context(), chi.URLParam(r, "id"), body)
		if err != nil {
			contentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleDelete(c collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			contentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleDeleteAll(c collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := c.removeAll(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "count": n})
	}
}

func handleExport(c collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := c.export()
		if err != nil {
			contentError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}
