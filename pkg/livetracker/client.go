package livetracker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client is one live connection: the websocket, its connection id and
// the buffered outbound queue the fan-out path writes into.
type Client struct {
	id     ConnectionID
	conn   *websocket.Conn
	server *Server

	send   chan OutboundEvent
	sendMu sync.Mutex
	closed bool
}

func newClient(server *Server, conn *websocket.Conn) *Client {
	return &Client{
		id:     ConnectionID(uuid.NewString()),
		conn:   conn,
		server: server,
		send:   make(chan OutboundEvent, sendBufferSize),
	}
}

func (c *Client) ID() ConnectionID {
	return c.id
}

// queue enqueues an event without ever blocking. A connection whose
// queue is full just misses this event - the next update makes up for
// it. Returns false once the connection has been closed.
func (c *Client) queue(event OutboundEvent) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- event:
	default:
		log.Debug().Str("connection", string(c.id)).Str("event", event.Event).Msg("Send queue full, dropping event")
	}

	return true
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump decodes client events and hands them to the server until the
// connection dies, then triggers disconnect cleanup exactly once.
func (c *Client) readPump() {
	defer c.server.disconnect(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var envelope Envelope
		err := c.conn.ReadJSON(&envelope)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("connection", string(c.id)).Msg("Websocket closed unexpectedly")
			}
			return
		}

		c.server.handleEvent(c, envelope)
	}
}

// writePump writes queued events to the connection and keeps it alive
// with pings. Exits when the send queue is closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
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

// ConnectionTable maps connection ids to their clients and implements
// Deliverer for the engine and the notification consumers.
type ConnectionTable struct {
	mu      sync.RWMutex
	clients map[ConnectionID]*Client
}

func NewConnectionTable() *ConnectionTable {
	return &ConnectionTable{
		clients: map[ConnectionID]*Client{},
	}
}

func (t *ConnectionTable) add(client *Client) {
	t.mu.Lock()
	t.clients[client.id] = client
	t.mu.Unlock()
}

func (t *ConnectionTable) remove(id ConnectionID) {
	t.mu.Lock()
	delete(t.clients, id)
	t.mu.Unlock()
}

func (t *ConnectionTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.clients)
}

// Deliver queues an event for one connection, send-and-forget. Unknown
// or already-closed connections are skipped silently.
func (t *ConnectionTable) Deliver(id ConnectionID, event OutboundEvent) {
	t.mu.RLock()
	client := t.clients[id]
	t.mu.RUnlock()

	if client == nil {
		return
	}

	client.queue(event)
}
