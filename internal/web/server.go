// Package web provides the HTTP status page, the JSON control API used by the
// chat UI, and the websocket endpoint adapter processes stream into.
package web

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sweeney/moodfuse/internal/adapter"
	"github.com/sweeney/moodfuse/internal/logic"
	"github.com/sweeney/moodfuse/internal/status"
)

// Engine is the session the control API and adapter endpoint drive.
// *session.Engine satisfies it.
type Engine interface {
	adapter.Sink
	Choose(ctx context.Context, mood logic.Mood) (logic.MoodEntry, error)
	SendMessage(ctx context.Context, text string) (logic.CrisisLevel, error)
	PetAction(ctx context.Context, a logic.PetAction) (logic.ActionResult, error)
	DismissCrisis(ctx context.Context) (bool, error)
	StartBreathing(ctx context.Context) error
}

// Server serves the status page and control API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	engine     Engine
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	adapters map[*websocket.Conn]func()
}

// New creates a Server that reads state from tracker. A nil engine serves
// the status page only.
func New(addr string, tracker *status.Tracker, engine Engine) *Server {
	s := &Server{
		tracker:  tracker,
		engine:   engine,
		adapters: make(map[*websocket.Conn]func()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// Adapters run on the same host or LAN without a browser origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /index.html", s.handleIndex)
	mux.HandleFunc("GET /index.json", s.handleJSON)

	if engine != nil {
		mux.HandleFunc("POST /api/mood", s.handleMood)
		mux.HandleFunc("POST /api/message", s.handleMessage)
		mux.HandleFunc("POST /api/pet/{action}", s.handlePet)
		mux.HandleFunc("POST /api/crisis/dismiss", s.handleDismiss)
		mux.HandleFunc("POST /api/breathing", s.handleBreathing)
		mux.HandleFunc("GET /ws/adapter/{modality}", s.handleAdapter)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the server's routes. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown closes every adapter connection, then gracefully shuts down the
// server. Hijacked websocket connections are not tracked by http.Server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	releases := make([]func(), 0, len(s.adapters))
	for _, release := range s.adapters {
		releases = append(releases, release)
	}
	s.mu.Unlock()
	for _, release := range releases {
		release()
	}
	return s.httpServer.Shutdown(ctx)
}

// Adapters returns the number of connected adapter processes.
func (s *Server) Adapters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.adapters)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
