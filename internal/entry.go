// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/quire/internal/api"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/mcpserver"
	"github.com/starford/quire/internal/postservice"
	"github.com/starford/quire/internal/renderer"
	"github.com/starford/quire/internal/site"
	"github.com/starford/quire/internal/sse"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{stdout: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the structured JSON logger. Commands that own stdout log
// to stderr instead.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openIndex opens and syncs the post index, or returns nil when disabled.
func openIndex(ctx context.Context, cfg *Config, r *renderer.Renderer, logger *slog.Logger) (*index.Indexer, error) {
	if !cfg.Index.Enabled {
		return nil, nil
	}
	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	ix := index.NewIndexer(db, r.Store(), r.Parser(), r.ResolvePath, logger)

	// Run initial sync.
	if err := ix.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return ix, nil
}

func newService(r *renderer.Renderer, ix *index.Indexer) *postservice.Service {
	if ix == nil {
		return postservice.NewService(r, nil)
	}
	return postservice.NewService(r, ix.DB())
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, app.stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_root", cfg.Blog.ContentRoot),
		slog.String("template", cfg.Blog.Template),
		slog.Bool("index_enabled", cfg.Index.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rend, err := renderer.New(cfg.RendererConfig(), logger)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	ix, err := openIndex(ctx, cfg, rend, logger)
	if err != nil {
		return err
	}
	if ix != nil {
		defer ix.DB().Close()
	}

	// Live reload: watcher changes are batched into site.reload events.
	broker := sse.NewBroker(sse.WithPageURL(rend.URLFor))
	defer broker.Close()

	svc := newService(rend, ix)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.MaxAge))

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api, pages under the route prefix.
	r.Mount("/api", api.NewRouter(svc, broker))
	api.MountPages(r, svc, rend.RoutePrefix())

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	if cfg.Watch.Enabled && ix != nil {
		g.Go(func() error {
			if err := ix.Watch(gCtx, cfg.Watch.Debounce, broker.PublishPageEvent); err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// Render renders a single document identifier and writes the page to stdout.
func Render(ctx context.Context, documentPath string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)

	rend, err := renderer.New(app.config.RendererConfig(), logger)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	html, err := rend.Render(ctx, documentPath)
	if err != nil {
		return err
	}
	_, err = io.WriteString(app.stdout, html)
	return err
}

// Build renders the whole content root into the configured output directory.
func Build(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stderr)

	rend, err := renderer.New(cfg.RendererConfig(), logger)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	report, err := site.NewBuilder(rend, cfg.Build.Output, cfg.Build.Workers, logger).Build(ctx)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	_, err = fmt.Fprintf(app.stdout, "built %d pages and %d assets into %s\n", report.Pages, report.Assets, cfg.Build.Output)
	return err
}

// ServeMCP runs the MCP server over stdio. Logs go to stderr since stdout
// carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stderr)

	rend, err := renderer.New(cfg.RendererConfig(), logger)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	ix, err := openIndex(ctx, cfg, rend, logger)
	if err != nil {
		return err
	}
	if ix != nil {
		defer ix.DB().Close()
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(newService(rend, ix), app.version).ServeStdio()
}
