package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/gitlane/pkg/observability"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	// The API is read-only and serves local repositories.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	// Holding clientsMu keeps the initial write from racing a broadcast and
	// guarantees the client sees every snapshot after this one.
	s.clientsMu.Lock()
	if err := s.writeMessage(conn, s.currentMessage()); err != nil {
		s.clientsMu.Unlock()
		conn.Close()
		return
	}
	s.clients[conn] = true
	n := len(s.clients)
	s.clientsMu.Unlock()
	s.logger.Debug("websocket client connected", "clients", n)

	// Clients only listen; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.dropClient(conn)
}

func (s *Server) currentMessage() Message {
	snap := s.snapshot()
	if snap.err != nil {
		return Message{Type: MessageError, Data: errorBody(snap.err)}
	}
	return Message{Type: MessageLayout, Data: snap.layout}
}

func (s *Server) writeMessage(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// queue hands msg to the broadcaster without blocking. When the queue is
// full the oldest pending message is dropped; only the newest state matters.
func (s *Server) queue(msg Message) {
	for {
		select {
		case s.broadcast <- msg:
			return
		default:
		}
		select {
		case <-s.broadcast:
		default:
		}
	}
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.broadcast:
			s.clientsMu.Lock()
			for conn := range s.clients {
				if err := s.writeMessage(conn, msg); err != nil {
					s.logger.Debug("dropping websocket client", "error", err)
					delete(s.clients, conn)
					conn.Close()
				}
			}
			n := len(s.clients)
			s.clientsMu.Unlock()
			observability.Server().OnBroadcast(ctx, n)
		}
	}
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	n := len(s.clients)
	s.clientsMu.Unlock()
	conn.Close()
	s.logger.Debug("websocket client disconnected", "clients", n)
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(s.clients, conn)
	}
}
