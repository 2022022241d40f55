package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches the connection to the session's event stream and blocks
// until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 256)}
	if !client.Hub.attach(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
