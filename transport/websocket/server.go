package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/parchis/game/gateway"
	"github.com/wricardo/parchis/game/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Server upgrades HTTP requests and attaches each connection to the hub
type Server struct {
	hub      *gateway.Hub
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

// NewServer creates a WebSocket endpoint backed by hub
func NewServer(hub *gateway.Hub, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		hub: hub,
		log: logger.WithField("component", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Players connect from any origin; there are no cookies to protect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type client struct {
	hub  *gateway.Hub
	peer *gateway.Peer
	conn *websocket.Conn
	log  *logrus.Entry
}

// ServeWS handles a player's WebSocket upgrade request
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	peer := s.hub.Register(r.RemoteAddr)
	c := &client{
		hub:  s.hub,
		peer: peer,
		conn: conn,
		log:  s.log.WithField("peer", peer.ID),
	}

	go c.writePump()
	go c.readPump()
}

// readPump feeds inbound frames to the hub until the connection fails
func (c *client) readPump() {
	defer func() {
		c.hub.ConnectionLost(c.peer.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(protocol.MaxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket read error")
			}
			return
		}
		c.hub.Receive(c.peer, data)
	}
}

// writePump writes queued messages, one per text frame. When the hub
// closes the queue the connection is closed after the remaining messages.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	out := c.peer.Outbound()
	for {
		select {
		case message, ok := <-out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Debug("WebSocket write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
