package web

import (
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/gorilla/websocket"
)

type Client struct {
	hub  *hub
	conn *websocket.Conn
	m    *emu.Machine
	done <-chan struct{}
	Send chan []byte
}

// ReadPump applies keypad and control messages from the browser.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(64)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return // connection closed
		}
		if len(message) < 2 {
			continue
		}
		switch message[0] {
		case Key:
			if len(message) >= 3 {
				c.m.SetKey(message[1]&0x0F, message[2] != 0)
			}
		case Control:
			if message[1] == ControlReset {
				_ = c.m.Reset()
			}
		}
	}
}

// WritePump forwards hub messages to the connection until Send is closed.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for message := range c.Send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
