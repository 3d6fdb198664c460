// Package realtime pushes navigator frames to websocket subscribers.
package realtime

import (
	"time"

	"github.com/gofiber/contrib/v3/websocket"
	"github.com/gofiber/fiber/v3"

	"github.com/seuros/funnelscope/internal/logging"
)

// Hub fans messages out to clients grouped by topic. A topic is a session
// id; an empty topic addresses every client.
type Hub struct {
	register    chan *Client
	unregister  chan *Client
	broadcast   chan message
	clientCount chan countQuery
	topics      map[string]map[*Client]struct{}
}

type message struct {
	topic   string
	payload []byte
}

type countQuery struct {
	topic    string
	response chan int
}

type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

type Client struct {
	hub   *Hub
	conn  wsConn
	topic string
	send  chan []byte
}

type pingTicker interface {
	C() <-chan time.Time
	Stop()
}

type realPingTicker struct {
	*time.Ticker
}

func (t *realPingTicker) C() <-chan time.Time {
	return t.Ticker.C
}

var pingTickerFactory = func() pingTicker {
	return &realPingTicker{time.NewTicker(30 * time.Second)}
}

func NewHub() *Hub {
	h := &Hub{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan message, 512),
		clientCount: make(chan countQuery),
		topics:      make(map[string]map[*Client]struct{}),
	}

	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			clients := h.topics[client.topic]
			if clients == nil {
				clients = make(map[*Client]struct{})
				h.topics[client.topic] = clients
			}
			clients[client] = struct{}{}
		case client := <-h.unregister:
			if h.remove(client) {
				_ = client.conn.Close()
			}
		case msg := <-h.broadcast:
			if msg.topic == "" {
				for _, clients := range h.topics {
					h.deliver(clients, msg.payload)
				}
			} else {
				h.deliver(h.topics[msg.topic], msg.payload)
			}
		case query := <-h.clientCount:
			query.response <- h.count(query.topic)
		}
	}
}

func (h *Hub) deliver(clients map[*Client]struct{}, payload []byte) {
	for client := range clients {
		select {
		case client.send <- payload:
		default:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) bool {
	clients, ok := h.topics[client.topic]
	if !ok {
		return false
	}
	if _, ok := clients[client]; !ok {
		return false
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.topics, client.topic)
	}
	close(client.send)
	return true
}

func (h *Hub) count(topic string) int {
	if topic != "" {
		return len(h.topics[topic])
	}
	total := 0
	for _, clients := range h.topics {
		total += len(clients)
	}
	return total
}

// Publish queues payload for the subscribers of topic.
func (h *Hub) Publish(topic string, payload []byte) {
	h.enqueue(message{topic: topic, payload: payload})
}

// Broadcast queues payload for every subscriber.
func (h *Hub) Broadcast(payload []byte) {
	h.enqueue(message{payload: payload})
}

func (h *Hub) enqueue(msg message) {
	select {
	case h.broadcast <- msg:
	default:
		logging.L().Warn("dropping realtime payload", "reason", "slow consumers", "topic", msg.topic)
	}
}

// ClientCount returns the number of subscribers of topic, or of all topics
// when topic is empty.
func (h *Hub) ClientCount(topic string) int {
	response := make(chan int)
	h.clientCount <- countQuery{topic: topic, response: response}
	return <-response
}

// Handler upgrades the request and subscribes the connection to the topic
// named by the route parameter param.
func (h *Hub) Handler(param string) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{
			hub:   h,
			conn:  conn,
			topic: conn.Params(param),
			send:  make(chan []byte, 64),
		}

		h.register <- client

		go client.writePump()
		client.readPump()
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := pingTickerFactory()
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C():
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
