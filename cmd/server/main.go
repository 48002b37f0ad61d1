package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/linework/linework/backend-go/internal/asset"
	"github.com/linework/linework/backend-go/internal/auth"
	"github.com/linework/linework/backend-go/internal/collab"
	"github.com/linework/linework/backend-go/internal/config"
	"github.com/linework/linework/backend-go/internal/export"
	mw "github.com/linework/linework/backend-go/internal/middleware"
	"github.com/linework/linework/backend-go/internal/sketch"
	"github.com/linework/linework/backend-go/internal/store"
	"github.com/linework/linework/backend-go/internal/typeid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	sketchService := sketch.NewService(st)
	sketchHandler := sketch.NewHandler(sketchService)

	assetService := asset.NewService(st)
	assetHandler := asset.NewHandler(assetService, cfg.MaxUploadBytes)

	exportHandler := export.NewHandler()

	hub := collab.NewHub(&snapshotStore{st: st}, cfg.SnapshotEvery)
	go hub.Run()

	collabHandler := collab.NewHandler(hub, authService, sketchService.RoomAccess, cfg.Origins())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	api.HandleFunc("/sketches", sketchHandler.List).Methods("GET")
	api.HandleFunc("/sketches", sketchHandler.Create).Methods("POST")
	api.HandleFunc("/sketches/{id}", sketchHandler.Get).Methods("GET")
	api.HandleFunc("/sketches/{id}", sketchHandler.Rename).Methods("PUT")
	api.HandleFunc("/sketches/{id}", sketchHandler.Delete).Methods("DELETE")
	api.HandleFunc("/sketches/{id}/invite", sketchHandler.Invite).Methods("POST")
	api.HandleFunc("/sketches/{id}/members", sketchHandler.ListMembers).Methods("GET")
	api.HandleFunc("/sketches/{id}/members/{userId}", sketchHandler.RemoveMember).Methods("DELETE")
	api.HandleFunc("/sketches/{id}/snapshots", sketchHandler.SaveSnapshot).Methods("POST")
	api.HandleFunc("/sketches/{id}/snapshots/latest", sketchHandler.GetSnapshot).Methods("GET")

	api.HandleFunc("/sketches/{id}/assets", assetHandler.Upload).Methods("POST")
	api.HandleFunc("/assets/{id}", assetHandler.Serve).Methods("GET")

	api.HandleFunc("/export/png", exportHandler.ExportPNG).Methods("POST")
	api.HandleFunc("/export/pdf", exportHandler.ExportPDF).Methods("POST")

	// WebSocket endpoint
	collabHandler.RegisterRoutes(r)

	// Preflight requests only need to match a route; the CORS middleware
	// answers them before this handler runs.
	r.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: drain HTTP first so in-flight operations land, then
	// flush every open room to the store.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)

		slog.Info("saving open sketches")
		hub.Stop(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// snapshotStore adapts the persistence layer to the hub's interface.
type snapshotStore struct {
	st *store.Store
}

func (s *snapshotStore) LoadLatest(ctx context.Context, sketchID string) ([]byte, int64, error) {
	snap, err := s.st.LatestSnapshot(ctx, sketchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, 0, collab.ErrNoSnapshot
		}
		return nil, 0, err
	}
	return snap.Document, snap.Seq, nil
}

func (s *snapshotStore) Save(ctx context.Context, sketchID string, seq int64, doc []byte) error {
	_, err := s.st.CreateSnapshot(ctx, typeid.NewSnapshotID(), sketchID, seq, doc)
	return err
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
