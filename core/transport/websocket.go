package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// WebsocketConnection wraps a gorilla websocket connection as a Connection.
// gorilla permits only one concurrent writer, so all posts go through a
// mutex; narration goroutines and the streaming loop share one connection.
type WebsocketConnection struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewWebsocketConnection(ws *websocket.Conn) *WebsocketConnection {
	return &WebsocketConnection{ws: ws}
}

func (c *WebsocketConnection) Post(ctx context.Context, event Event) error {
	if c == nil || c.ws == nil {
		return fmt.Errorf("connection was not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(event); err != nil {
		return fmt.Errorf("failed to post event to connection: %w", err)
	}
	return nil
}

func (c *WebsocketConnection) Close() error {
	if c == nil || c.ws == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}
