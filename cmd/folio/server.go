package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/folio/internal/admin"
	"github.com/kalambet/folio/internal/api"
	"github.com/kalambet/folio/internal/appwrite"
	"github.com/kalambet/folio/internal/config"
	"github.com/kalambet/folio/internal/content"
	"github.com/kalambet/folio/internal/gateway"
	"github.com/kalambet/folio/internal/localstore"
	"github.com/kalambet/folio/internal/mirror"
	"github.com/kalambet/folio/internal/render"
	"github.com/kalambet/folio/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portfolio server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running folio server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show folio server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "folio.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openLocalKV picks the key/value backend for the local content copy.
// The SQLite store is always open because it also holds the sync-failure log.
func openLocalKV(ctx context.Context, cfg config.Config, store *storage.Store) (localstore.KV, func(), error) {
	if cfg.Storage.Backend != "redis" {
		return store, func() {}, nil
	}
	kv, err := storage.OpenRedis(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisPrefix)
	if err != nil {
		return nil, nil, err
	}
	return kv, func() {
		if err := kv.Close(); err != nil {
			slog.Warn("closing redis", "error", err)
		}
	}, nil
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "folio version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)})))

	if cfg.Backend.ProjectID == "" {
		printWarning("backend.project_id is not set; remote reads and writes will fail")
	}
	if cfg.Backend.AdminUserID == "" {
		printWarning("backend.admin_user_id is not set; nobody can sign in as admin")
	}

	// Refuse to start twice on the same port.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	kv, closeKV, err := openLocalKV(ctx, cfg, store)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	defer closeKV()

	backend := appwrite.New(cfg.Backend.Endpoint, cfg.Backend.ProjectID).
		WithHTTPClient(&http.Client{Timeout: 15 * time.Second})
	gw := gateway.New(backend, gateway.Config{
		DatabaseID:            cfg.Backend.DatabaseID,
		CollectionPortfolio:   cfg.Backend.CollectionPortfolio,
		CollectionProjects:    cfg.Backend.CollectionProjects,
		CollectionInternships: cfg.Backend.CollectionInternships,
		AdminUserID:           cfg.Backend.AdminUserID,
	})

	queue := mirror.NewQueue(store, cfg.Mirror.QueueSize)
	contentStore := content.New(localstore.New(kv), gw, queue)

	renderer, err := render.New()
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Deps{
		Content:   contentStore,
		Gate:      admin.NewGate(gw),
		Sessions:  api.NewSessions(cfg.Server.SessionSecret, cfg.Server.SessionTTL),
		Renderer:  renderer,
		Failures:  store,
		StaticDir: filepath.Join(cfg.Storage.DataDir, "static"),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "folio starting on %s\n", addr)
	return runLifecycle(ctx, contentStore.Reconcile, queue, srv)
}

type taskRunner interface {
	Run(ctx context.Context)
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// runLifecycle reconciles once before accepting requests, serves until ctx
// is done, and stops the mirror queue only after in-flight handlers finished
// so their tasks are still drained.
func runLifecycle(ctx context.Context, reconcile func(context.Context), queue taskRunner, srv httpServer) error {
	queueCtx, stopQueue := context.WithCancel(context.WithoutCancel(ctx))
	queueDone := make(chan struct{})
	go func() {
		defer close(queueDone)
		queue.Run(queueCtx)
	}()
	defer func() {
		stopQueue()
		<-queueDone
	}()

	reconcileCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	reconcile(reconcileCtx)
	cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("accepting requests")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("folio is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop folio (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to folio (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		token:      loadToken(cfg.Storage.DataDir),
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
	reportStatus(context.Background(), client)

	printStatus("Storage", "%s", cfg.Storage.Backend)
	printStatus("Backend", "%s (project %q)", cfg.Backend.Endpoint, cfg.Backend.ProjectID)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func reportStatus(ctx context.Context, client *apiClient) {
	resp, err := client.get(ctx, "/health")
	if err != nil {
		printStatus("Server", "stopped")
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		return
	}
	printStatus("Server", "running at %s", client.baseURL)

	sessResp, err := client.get(ctx, "/api/session")
	if err != nil {
		return
	}
	var sess api.SessionResponse
	if decodeJSON(sessResp, &sess) == nil {
		if sess.Admin {
			printStatus("Session", "admin (%s)", sess.UserID)
		} else {
			printStatus("Session", "guest")
		}
	}
	if !sess.Admin {
		return
	}

	failResp, err := client.get(ctx, "/api/sync/failures?limit=100")
	if err != nil {
		return
	}
	var failures []json.RawMessage
	if decodeJSON(failResp, &failures) == nil {
		printStatus("Sync failures", "%s", countLabel(len(failures), 100))
	}
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
