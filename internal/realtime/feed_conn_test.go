package realtime

import (
	"io"
	"slices"
	"sync"

	"github.com/gofiber/contrib/v3/websocket"
)

// feedConn stands in for a session feed websocket. Reads replay the queued
// errors and then report io.EOF.
type feedConn struct {
	mu     sync.Mutex
	sent   []sentFrame
	reads  []error
	closes int
}

type sentFrame struct {
	kind    int
	payload []byte
}

func newFeedConn(reads ...error) *feedConn {
	return &feedConn{reads: reads}
}

func (c *feedConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentFrame{kind: kind, payload: slices.Clone(data)})
	return nil
}

func (c *feedConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.reads) == 0 {
		return 0, nil, io.EOF
	}
	err := c.reads[0]
	c.reads = c.reads[1:]
	return websocket.TextMessage, nil, err
}

func (c *feedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *feedConn) frames() []sentFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.sent)
}

// texts returns the text payloads written so far, in order.
func (c *feedConn) texts() []string {
	var out []string
	for _, f := range c.frames() {
		if f.kind == websocket.TextMessage {
			out = append(out, string(f.payload))
		}
	}
	return out
}

func (c *feedConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
