package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalambet/folio/internal/admin"
	"github.com/kalambet/folio/internal/content"
	"github.com/kalambet/folio/internal/render"
	"github.com/kalambet/folio/internal/storage"
)

// FailureLog is the persistent log of remote writes that did not land.
type FailureLog interface {
	ListSyncFailures(limit int) ([]storage.SyncFailure, error)
	ClearSyncFailures() (int, error)
}

type Deps struct {
	Content  *content.Store
	Gate     *admin.Gate
	Sessions *Sessions
	Renderer *render.Renderer
	Failures FailureLog
	// StaticDir is served under /static/ when set.
	StaticDir string
}

func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(WithSession(deps.Sessions))

	r.Get("/", handlePage(deps))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	if deps.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(deps.StaticDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/portfolio", handleGetPortfolio(deps))
		r.Get("/session", handleGetSession(deps))
		r.Post("/session", handleSignIn(deps))
		r.Delete("/session", handleSignOut(deps))

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(deps.Gate))

			r.Put("/profile", handleSaveProfile(deps))
			r.Put("/appearance", handleSetAppearance(deps))
			for name, c := range collections(deps) {
				r.Post("/"+name, handleAdd(c))
				r.Put("/"+name+"/{id}", handleUpdate(c))
				r.Delete("/"+name+"/{id}", handleDelete(c))
				r.Get("/"+name+"/export", handleExport(c))
				r.Delete("/"+name, handleDeleteAll(c))
			}
			r.Get("/sync/failures", handleListFailures(deps))
			r.Delete("/sync/failures", handleClearFailures(deps))
		})
	})

	return r
}

func handlePage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, _ := deps.Gate.Resolve(r.Context())
		var buf bytes.Buffer
		if err := deps.Renderer.Render(&buf, deps.Content.Snapshot(), state); err != nil {
			slog.Error("rendering page failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

func handleGetPortfolio(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Content.Snapshot())
	}
}
