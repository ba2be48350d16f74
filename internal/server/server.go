package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/flockshop/wishlist-api/config"
	"github.com/flockshop/wishlist-api/internal/db"
	"github.com/flockshop/wishlist-api/internal/handlers"
	"github.com/flockshop/wishlist-api/internal/mq"
	"github.com/flockshop/wishlist-api/internal/services"
	"github.com/flockshop/wishlist-api/internal/storage"
	"github.com/flockshop/wishlist-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
	logger     logrus.FieldLogger
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Server, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	events, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init mq backend: %w", err)
	}

	imageStore, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init storage backend: %w", err)
	}
	if imageStore != nil {
		if err := imageStore.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("ensure image bucket: %w", err)
		}
	}

	userRepo := store.NewUserRepository(dbConn)
	wishlistRepo := store.NewWishlistRepository(dbConn)

	userService := services.NewUserService(userRepo)
	var publisher services.InvitationPublisher
	if events != nil {
		publisher = events
	}
	wishlistService := services.NewWishlistService(wishlistRepo, userRepo, publisher, logger)

	authHandler := handlers.NewAuthHandler(userService, wishlistService, jwtSecret, logger)
	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/api/wishlist", func(r chi.Router) {
		handlers.WishlistRouter(r, wishlistService, authMiddleware)
	})
	if imageStore != nil {
		router.Route("/api/uploads", func(r chi.Router) {
			handlers.UploadRouter(r, imageStore, cfg.Upload.PublicBaseURL, authMiddleware)
		})
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 5000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("starting server")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
