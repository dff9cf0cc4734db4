package relay

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
)

// writeTimeout bounds a single command push to a spectator.
const writeTimeout = 5 * time.Second

// Channel is the server side of a spectator's live connection.
type Channel interface {
	// Send pushes one play command to the spectator.
	Send(cmd PlayCommand) error
	// Close tears the connection down.
	Close() error
}

// wsChannel wraps a websocket connection with serialized writes.
// gorilla/websocket permits at most one concurrent writer per connection.
type wsChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSChannel wraps conn as a Channel.
func NewWSChannel(conn *websocket.Conn) Channel {
	return &wsChannel{conn: conn}
}

func (c *wsChannel) Send(cmd PlayCommand) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.Wrap(err, "failed to set write deadline")
	}
	if err := c.conn.WriteJSON(cmd); err != nil {
		return errors.Wrap(err, "failed to write play command")
	}
	return nil
}

func (c *wsChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
