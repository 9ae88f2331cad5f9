// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"eventscout/internal/config"
	"eventscout/internal/domain/event"
	"eventscout/internal/domain/notify"
	"eventscout/internal/domain/user"
	"eventscout/internal/server/handlers"
	"eventscout/internal/service/search"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	notifyCfg config.NotifyConfig,
	natsConn *nats.Conn,
	events event.Store,
	users user.Store,
	notifications notify.Store,
	engine *search.Engine,
	dispatcher notify.Dispatcher,
	logger *logrus.Logger,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(handlers.UserIDMiddleware)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	searchHandler := handlers.NewSearchHandler(engine)
	eventHandler := handlers.NewEventHandler(events, dispatcher, logger)
	notificationHandler := handlers.NewNotificationHandler(notifications)
	userHandler := handlers.NewUserHandler(users)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Search API
			r.Route("/search", func(r chi.Router) {
				r.Get("/events", searchHandler.SearchEvents)
				r.Get("/nearby", searchHandler.NearbyEvents)
				r.Get("/recommended", searchHandler.RecommendedEvents)
			})

			// Events API
			r.Route("/events", func(r chi.Router) {
				r.Get("/", eventHandler.ListEvents)
				r.Post("/", eventHandler.CreateEvent)
				r.Get("/{id}", eventHandler.GetEvent)
				r.Put("/{id}", eventHandler.UpdateEvent)
				r.Delete("/{id}", eventHandler.DeleteEvent)
				r.Post("/{id}/save", eventHandler.SaveFavorite)
				r.Delete("/{id}/save", eventHandler.RemoveFavorite)
			})

			// Favorites API
			r.Get("/favorites", eventHandler.ListFavorites)

			// Notifications API
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.ListNotifications)
				r.Put("/{id}/read", notificationHandler.MarkRead)
				r.Put("/read-all", notificationHandler.MarkAllRead)
			})

			// Profile API
			r.Route("/profile", func(r chi.Router) {
				r.Get("/", userHandler.GetProfile)
				r.Put("/location", userHandler.UpdateLocation)
				r.Put("/preferences", userHandler.SetPreferences)
			})
		})
	})

	// WebSocket endpoint for the live notification stream
	router.Get("/ws/notifications", handlers.NotificationStreamHandler(natsConn, notifyCfg.SubjectPrefix, logger))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
