// Package feed streams committed marketplace change events to
// external observers over WebSocket. The event stream is the only
// bulk state-reconstruction mechanism the marketplace exposes.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nftmarket_go/internal/event"
	"nftmarket_go/internal/infra"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second

	// sendBuffer bounds the per-client queue; a client that cannot
	// keep up is dropped rather than blocking the broadcaster.
	sendBuffer = 256
)

// frame is the wire envelope for one event.
type frame struct {
	Type string      `json:"type"`
	Data event.Event `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server broadcasts events to all connected WebSocket clients.
type Server struct {
	addr     string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	httpSrv *http.Server
}

// NewServer creates a feed server listening on addr.
func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Start serves /events until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)

	s.httpSrv = &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
	}()

	slog.Info("event feed listening", slog.String("addr", s.addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Broadcast queues an event for every connected client. Called from
// the engine's event sink; never blocks on slow clients.
func (s *Server) Broadcast(ev event.Event) {
	payload, err := json.Marshal(frame{Type: ev.GetType(), Data: ev})
	if err != nil {
		slog.Error("failed to encode feed event", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
			// Queue full: drop the laggard.
			delete(s.clients, c)
			close(c.send)
		}
	}
	infra.GlobalMetrics.RecordEventPublished()
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	infra.GlobalMetrics.IncrementFeedClients()
	slog.Info("feed client connected", slog.String("remote", conn.RemoteAddr().String()))

	go s.writePump(c)
	s.readPump(c)
}

// readPump discards inbound messages and detects disconnects.
func (s *Server) readPump(c *client) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drop removes a client and releases its queue.
func (s *Server) drop(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()

	c.conn.Close()
	infra.GlobalMetrics.DecrementFeedClients()
}
