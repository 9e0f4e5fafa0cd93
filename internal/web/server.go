// Package web serves a JSON stats API and a websocket feed for a running
// guidance instance, with no embedded HTML dashboard: internal/ui already
// covers the interactive terminal view, so this package exists purely for
// headless observability (scripts, CI dashboards, curl).
//
// Grounded on shwoo03-Project/smart web fuzzer's internal/web/server.go
// (fiber app, cors, the clients map + broadcast channel fan-out, the
// golang.org/x/time/rate limiter on the start endpoint), retargeted from
// HTTP-fuzz-campaign control (start/stop/config, OWASP findings) to a
// read-only guidance snapshot feed: there is no "start/stop" concept here
// since the CLI owns the run lifecycle.
package web

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/time/rate"

	"github.com/neu-se/covguide/internal/guidance"
)

// Server exposes /api/stats and a /ws feed broadcasting a guidance.Snapshot
// every refresh.
type Server struct {
	app *fiber.App

	stats *guidance.Stats

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}
	broadcast chan []byte

	limiter *rate.Limiter
}

// NewServer returns a Server reading live counters from stats. pollRPS
// bounds how often /api/stats recomputes a fresh snapshot under load (0
// disables limiting).
func NewServer(stats *guidance.Stats, pollRPS int) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	s := &Server{
		app:       app,
		stats:     stats,
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan []byte, 100),
	}
	if pollRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(pollRPS), 1)
	}

	s.setupRoutes()
	go s.handleBroadcast()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(cors.New())

	api := s.app.Group("/api")
	api.Get("/stats", s.handleStats)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.handleWebSocket))
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	if s.limiter != nil && !s.limiter.Allow() {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limited"})
	}
	return c.JSON(s.stats.Snapshot())
}

func (s *Server) handleWebSocket(c *websocket.Conn) {
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
		c.Close()
	}()

	data, _ := json.Marshal(s.stats.Snapshot())
	c.WriteMessage(websocket.TextMessage, data)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) handleBroadcast() {
	for msg := range s.broadcast {
		s.clientsMu.Lock()
		for client := range s.clients {
			if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
				client.Close()
				delete(s.clients, client)
			}
		}
		s.clientsMu.Unlock()
	}
}

// BroadcastStats pushes the current snapshot to every connected websocket
// client, dropping the update if the broadcast channel is saturated.
func (s *Server) BroadcastStats() {
	data, err := json.Marshal(s.stats.Snapshot())
	if err != nil {
		return
	}
	select {
	case s.broadcast <- data:
	default:
	}
}

// RunPeriodicBroadcast pushes a stats update every period until stop is
// closed.
func (s *Server) RunPeriodicBroadcast(period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.BroadcastStats()
		}
	}
}

// Start begins serving at addr, blocking until the server stops.
func (s *Server) Start(addr string) error {
	log.Printf("[*] stats server listening at http://localhost%s\n", addr)
	return s.app.Listen(addr)
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	return s.app.Shutdown()
}
