// Package eventws streams committed escrow events to connected parties over
// websockets. Each connection is keyed by the identity proven at upgrade.
package eventws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/saeid-a/CoachEscrow/internal/events"
	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("event hub closed")

// Conn is the subset of a websocket connection the hub drives.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Envelope
	done       chan struct{}
	closeOnce  sync.Once
	logger     *zap.Logger
}

type Client struct {
	hub      *Hub
	conn     Conn
	identity string
	send     chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Envelope, 64),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func NewClient(hub *Hub, conn Conn, identity string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		identity: identity,
		send:     make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.identity]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.identity] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case event := <-h.broadcast:
			h.deliver(event)
		case <-h.done:
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues event for every connected recipient. It satisfies
// events.Publisher so the hub can sit in a fanout next to NATS.
func (h *Hub) Publish(ctx context.Context, event events.Envelope) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- event:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Close() error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

func (h *Hub) drop(client *Client) {
	set, ok := h.clients[client.identity]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.identity)
	}
}

func (h *Hub) deliver(event events.Envelope) {
	encoded, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("event hub encode failed", zap.String("topic", event.Topic), zap.Error(err))
		return
	}

	for _, identity := range event.Recipients() {
		h.sendTo(identity, encoded)
	}
}

func (h *Hub) sendTo(identity string, payload []byte) {
	set, ok := h.clients[identity]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			h.logger.Debug("dropping slow event subscriber", zap.String("identity", identity))
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, identity)
	}
}

// ReadPump keeps the connection alive until the peer goes away. The stream
// is one-way, so inbound frames are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
