package server

import (
	"encoding/json"
	"net/http"

	"stock-market-api/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			return

		case client := <-s.register:
			s.clientMutex.Lock()
			s.clients[client] = struct{}{}
			s.clientMutex.Unlock()

		case client := <-s.unregister:
			s.clientMutex.Lock()
			if _, exists := s.clients[client]; exists {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientMutex.Unlock()

		case update := <-s.broadcast:
			s.clientMutex.Lock()
			for client := range s.clients {
				if !client.wants(update.Symbol) {
					continue
				}
				select {
				case client.send <- update:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.clientMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// BroadcastPriceUpdate queues an update for all subscribed clients. Drops
// the update rather than blocking when the queue is saturated.
func (s *APIServer) BroadcastPriceUpdate(update *models.MPriceUpdate) {
	select {
	case s.broadcast <- update:
	default:
		s.Logger.Warning("broadcast queue full, dropping update for %s", update.Symbol)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan interface{}, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	client.setSubscriptions(cmd.Symbols)

	ack := gin.H{"type": "SUBSCRIBED", "symbols": cmd.Symbols}
	select {
	case client.send <- ack:
	default:
		// Client buffer full; the Hub loop prunes slow clients on the
		// next broadcast.
	}
}
