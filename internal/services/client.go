package services

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Vegeta420Blaze/buzzer-app/internal/config"
	"github.com/Vegeta420Blaze/buzzer-app/internal/models"
)

// Client represents a single WebSocket connection with its own send goroutine
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	connID string

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	closeMu sync.Mutex
}

// NewClient creates a new client instance
func NewClient(conn *websocket.Conn, hub *Hub, connID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		conn:   conn,
		send:   make(chan []byte, config.ClientSendBufferSize),
		hub:    hub,
		connID: connID,
		ctx:    ctx,
		cancel: cancel,
	}
}

// ConnID returns the connection's stable, opaque identifier.
func (c *Client) ConnID() string {
	return c.connID
}

// Start begins the client's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// writePump handles outgoing messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Channel closed, connection is closing
				_ = c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}

			writeCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()

			if err != nil {
				log.Debug().Err(err).Str("conn_id", c.connID).Msg("Write error")
				c.hub.metrics.IncrementBroadcastErrors()
				return
			}
			c.hub.metrics.IncrementMessagesSent()

		case <-ticker.C:
			// Keep the connection alive
			pingCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err != nil {
				log.Debug().Err(err).Str("conn_id", c.connID).Msg("Ping error")
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump handles incoming messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	for {
		readCtx, cancel := context.WithTimeout(c.ctx, config.PongTimeout)
		_, message, err := c.conn.Read(readCtx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				log.Debug().Err(err).Str("conn_id", c.connID).Msg("Read error")
				c.hub.metrics.IncrementConnectionErrors()
			}
			return
		}

		if !c.hub.limiter.Allow(c.conn) {
			log.Warn().Str("conn_id", c.connID).Msg("Rate limit exceeded")
			c.hub.metrics.IncrementRateLimitViolations()

			errMsg, _ := jsonNotice(models.SeverityWarning, "Rate limit exceeded. Please slow down.")
			c.Send(errMsg)
			continue
		}

		c.hub.metrics.IncrementMessagesReceived()
		c.hub.Enqueue(c, message)
	}
}

// Send queues a message for sending to the client
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		// Channel full, client is too slow
		log.Warn().Str("conn_id", c.connID).Msg("Send buffer full, closing slow client")
		c.hub.metrics.IncrementBroadcastErrors()
		go c.Close()
		return false
	}
}

// Close cleanly shuts down the client connection
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
