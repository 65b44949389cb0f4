// Package monitor exposes the running interview over a small local HTTP
// server: a health probe, a JSON status snapshot and a live WebSocket feed of
// transcript and state changes.
package monitor

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/JasonLiang12321/auraforming-ai/internal/interview"
)

// StateSource is the slice of the session the monitor reads.
type StateSource interface {
	Snapshot() interview.Snapshot
}

// Event is one message pushed over the WebSocket feed.
type Event struct {
	Type     string              `json:"type"` // "transcript" or "state"
	Line     *interview.Line     `json:"line,omitempty"`
	Snapshot *interview.Snapshot `json:"snapshot,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// local monitor only; bind MONITOR_ADDRESS to loopback in production
		return true
	},
}

// Server is the local monitor HTTP server.
type Server struct {
	echo    *echo.Echo
	session StateSource

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
}

func New(session StateSource) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		session: session,
		clients: make(map[*websocket.Conn]chan Event),
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.session.Snapshot())
	})
	e.GET("/ws", s.serveWS)
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start blocks serving on addr until Shutdown.
func (s *Server) Start(addr string) error {
	log.Printf("monitor: listening on %s", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn, ch := range s.clients {
		close(ch)
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	return s.echo.Shutdown(ctx)
}

// Broadcast fans an event out to connected clients. Clients that cannot keep
// up are dropped rather than blocking the session.
func (s *Server) Broadcast(ev Event) {
	s.mu.Lock()
	for conn, ch := range s.clients {
		select {
		case ch <- ev:
		default:
			close(ch)
			delete(s.clients, conn)
			_ = conn.Close()
		}
	}
	s.mu.Unlock()
}

func (s *Server) serveWS(c echo.Context) error {
	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	ch := make(chan Event, 32)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	// greet with the current snapshot so late joiners have full state
	snap := s.session.Snapshot()
	_ = conn.WriteJSON(Event{Type: "state", Snapshot: &snap})

	go s.writeLoop(conn, ch)

	// drain reads to detect disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(conn)
	return nil
}

func (s *Server) writeLoop(conn *websocket.Conn, ch <-chan Event) {
	for ev := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			s.drop(conn)
			return
		}
	}
	_ = conn.Close()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if ch, ok := s.clients[conn]; ok {
		close(ch)
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	_ = conn.Close()
}
