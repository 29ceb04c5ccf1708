// Package rcon adapts the external world-command executor to the
// narrow Channel interface the reconciler consumes. The transport is a
// websocket session: commands are issued one at a time under a single
// writer lock, which is all the ordering the channel guarantees.
// Delivery is at-least-once and the far side tolerates brief drops.
package rcon

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// commandMessage is one command sent to the executor.
type commandMessage struct {
	Command string `json:"command"`
}

// ackMessage is the executor's acknowledgement.
type ackMessage struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Client is a websocket command-channel client.
type Client struct {
	url     string
	timeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to the command executor at url. The connection is
// re-established lazily after failures.
func Dial(ctx context.Context, url string, timeout time.Duration) (*Client, error) {
	c := &Client{url: url, timeout: timeout}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial command channel %s: %w", url, err)
	}
	c.conn = conn
	return c, nil
}

// Execute sends one command and waits for its acknowledgement. The
// single writer lock preserves issuance order across callers. On any
// transport error the connection is dropped and redialed on the next
// call.
func (c *Client) Execute(ctx context.Context, command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			return fmt.Errorf("failed to redial command channel: %w", err)
		}
		c.conn = conn
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		c.dropLocked()
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(commandMessage{Command: command}); err != nil {
		c.dropLocked()
		return fmt.Errorf("failed to send command: %w", err)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		c.dropLocked()
		return fmt.Errorf("failed to set read deadline: %w", err)
	}
	var ack ackMessage
	if err := c.conn.ReadJSON(&ack); err != nil {
		c.dropLocked()
		return fmt.Errorf("failed to read command ack: %w", err)
	}
	if !ack.OK {
		return fmt.Errorf("command rejected by executor: %s", ack.Error)
	}
	return nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// dropLocked discards a broken connection. Caller holds mu.
func (c *Client) dropLocked() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			log.Printf("Warning: failed to close broken command channel: %v", err)
		}
		c.conn = nil
	}
}
