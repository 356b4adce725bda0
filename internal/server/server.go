// Package server exposes the board service over a JSON REST API and
// serves the embedded web client.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ldi/taskboard/embed/webui"
	"github.com/ldi/taskboard/internal/board"
)

type Server struct {
	svc    *board.Service
	logger *log.Logger
	server *http.Server
}

func NewServer(svc *board.Service, logger *log.Logger) *Server {
	return &Server{svc: svc, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Get("/stats", s.handleStatistics)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTask)
				r.Put("/", s.handleUpdateTask)
				r.Delete("/", s.handleDeleteTask)
				r.Post("/advance", s.handleAdvanceTask)
			})
		})
	})

	// The board client, embedded at build time.
	r.Handle("/*", http.FileServer(http.FS(webui.Assets)))

	return r
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	s.logger.Info("taskboard listening", "addr", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
