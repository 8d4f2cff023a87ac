// Package api provides the HTTP API server and handlers for the flipbook
// application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/flipbookapp/flipbook-server/internal/service"
	"github.com/flipbookapp/flipbook-server/internal/store"
	"github.com/flipbookapp/flipbook-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     *store.Store
	flipbooks *service.FlipbookService
	assets    *service.AssetService
	validator *validation.Validator

	// uploadsRoot backs the static file server; asset URLs point into it.
	uploadsRoot    string
	allowedOrigins []string

	router *chi.Mux
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, flipbooks *service.FlipbookService, assets *service.AssetService, uploadsRoot string, allowedOrigins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:          st,
		flipbooks:      flipbooks,
		assets:         assets,
		validator:      validation.New(),
		uploadsRoot:    uploadsRoot,
		allowedOrigins: allowedOrigins,
		router:         chi.NewRouter(),
		logger:         logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// The editor runs in the browser on a different origin.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	// Flipbook operations.
	s.router.Post("/save", s.handleSave)
	s.router.Get("/get", s.handleGet)
	s.router.Get("/list", s.handleList)
	s.router.Post("/rename", s.handleRenameBook)
	s.router.Post("/move", s.handleMoveBook)
	s.router.Post("/duplicate", s.handleDuplicateBook)
	s.router.Delete("/delete", s.handleDeleteBook)
	s.router.Post("/remove-recent", s.handleRemoveRecent)

	// Folder operations.
	s.router.Get("/folders", s.handleListFolders)
	s.router.Post("/folder/create", s.handleCreateFolder)
	s.router.Post("/folder/rename", s.handleRenameFolder)
	s.router.Post("/folder/duplicate", s.handleDuplicateFolder)
	s.router.Delete("/folder", s.handleDeleteFolder)

	// Asset operations.
	s.router.Post("/upload-asset", s.handleUploadAsset)
	s.router.Delete("/delete-asset", s.handleDeleteAsset)
	s.router.Get("/get-gallery-assets", s.handleGetGalleryAssets)

	// Stored asset URLs are absolute-from-root paths into this tree.
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(s.uploadsRoot))))
}
