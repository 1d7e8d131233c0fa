package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/keveinliu/inkwell/internal/auth"
	"github.com/keveinliu/inkwell/internal/backup"
	"github.com/keveinliu/inkwell/internal/config"
	"github.com/keveinliu/inkwell/internal/db"
	"github.com/keveinliu/inkwell/internal/handlers"
	appmiddleware "github.com/keveinliu/inkwell/internal/middleware"
	"github.com/keveinliu/inkwell/internal/models"
)

func main() {
	cfg := config.Load()

	if cfg.UsingDefaultSecret() {
		slog.Warn("JWT_SECRET is not set; using the insecure default secret. Set JWT_SECRET before exposing this server.")
	}

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		slog.Error("db open failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	tokens := auth.NewTokenService(cfg.JWTSecret)
	backups := backup.NewFileManager(cfg.BackupsPath)

	authHandler := handlers.NewAuthHandler(store, tokens)
	articlesHandler := handlers.NewArticlesHandler(store)
	categoriesHandler := handlers.NewCategoriesHandler(store)
	tagsHandler := handlers.NewTagsHandler(store)
	imagesHandler := handlers.NewImagesHandler(store, cfg.UploadsPath)
	settingsHandler := handlers.NewSettingsHandler(store, backups)

	requireAuth := appmiddleware.RequireAuth(tokens)
	optionalAuth := appmiddleware.OptionalAuth(tokens)
	requireAdmin := appmiddleware.RequireRole(models.RoleAdmin)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	r.Get("/health", handlers.Health)

	uploadsFS := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsPath)))
	r.Get("/uploads/*", uploadsFS.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		// Login and register share a tight limiter; they are the only
		// credential-guessing surface.
		loginLimiter := appmiddleware.NewRateLimiter(5, time.Minute)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/check-users", authHandler.CheckUsers)
			r.With(loginLimiter.Limit).Post("/register", authHandler.Register)
			r.With(loginLimiter.Limit).Post("/login", authHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Get("/verify", authHandler.Verify)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/articles", func(r chi.Router) {
			r.With(optionalAuth).Get("/", articlesHandler.List)
			r.With(optionalAuth).Get("/{id}", articlesHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", articlesHandler.Create)
				r.Put("/{id}", articlesHandler.Update)
				r.With(requireAdmin).Delete("/{id}", articlesHandler.Delete)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoriesHandler.List)
			r.Get("/{id}", categoriesHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/", categoriesHandler.Create)
				r.Put("/{id}", categoriesHandler.Update)
				r.Delete("/{id}", categoriesHandler.Delete)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tagsHandler.List)
			r.Get("/{id}", tagsHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/", tagsHandler.Create)
				r.Put("/{id}", tagsHandler.Update)
				r.Delete("/{id}", tagsHandler.Delete)
			})
		})

		r.Route("/images", func(r chi.Router) {
			r.Get("/", imagesHandler.List)
			r.Get("/{id}", imagesHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/upload", imagesHandler.Upload)
				r.With(requireAdmin).Delete("/{id}", imagesHandler.Delete)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/backup", settingsHandler.Backup)
				r.Post("/restore", settingsHandler.Restore)
				r.Post("/batch-update", settingsHandler.BatchUpdate)
				r.Get("/backups/list", settingsHandler.ListBackups)
				r.Get("/backups/download/{filename}", settingsHandler.DownloadBackup)
				r.Delete("/backups/{filename}", settingsHandler.DeleteBackup)
				r.Put("/{key}", settingsHandler.Update)
			})
			r.Get("/{key}", settingsHandler.Get)
		})

		r.With(requireAuth).Get("/stats", handlers.Stats(store))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("listening", "port", cfg.Port, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
