package chathub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"trustline/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 64
)

// WebSocketClient реалізує інтерфейс chathub.Client
type WebSocketClient struct {
	AnonID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan models.WebFrame

	closeOnce sync.Once
}

// NewWebSocketClient wraps an upgraded connection of a reporter.
func NewWebSocketClient(hub *ManagerService, anonID string, conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{
		AnonID: anonID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.WebFrame, sendBuffer),
	}
}

func (c *WebSocketClient) GetAnonID() string                      { return c.AnonID }
func (c *WebSocketClient) GetSendChannel() chan<- models.WebFrame { return c.Send }

// Run запускає 'pumps' для WebSocket
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close закриває Send канал (що зупинить writePump)
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: reading from web client %s: %v", c.AnonID, err)
			}
			return
		}

		var frame models.WebFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("WARN: bad JSON from web client %s: %v", c.AnonID, err)
			continue
		}
		ev, ok := eventFromFrame(c.AnonID, frame)
		if !ok {
			continue
		}
		c.Hub.dispatch(ev)
	}
}

// writePump читає кадри з каналу Send і записує їх у WebSocket, по одному JSON на повідомлення.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрито хабом, закриваємо з'єднання WS
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(frame); err != nil {
				log.Printf("WARN: writing to web client %s: %v", c.AnonID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
