package web

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type hub struct {
	clients map[*Client]bool

	broadcast            chan []byte
	register, unregister chan *Client
	// last messages, replayed to newly registered clients
	lastFrame, lastSound, lastStatus []byte
}

func newHub() *hub {
	return &hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 8),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.Send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			for _, msg := range [][]byte{h.lastStatus, h.lastFrame, h.lastSound} {
				if msg != nil {
					c.Send <- msg
				}
			}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.Send)
			}
		case msg := <-h.broadcast:
			switch msg[0] {
			case Frame:
				h.lastFrame = msg
			case Sound:
				h.lastSound = msg
			case Status:
				h.lastStatus = msg
			}
			for c := range h.clients {
				select {
				case c.Send <- msg:
				default:
					// slow client: drop it rather than stall the machine
					close(c.Send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// checkOrigin accepts requests without an Origin header, pages served from
// the same host, and the origins the server was told to trust.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return s.origins[strings.ToLower(origin)]
}

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: upgrade %s: %v", r.RemoteAddr, err)
		return
	}
	c := &Client{hub: s.hub, conn: conn, m: s.m, done: s.done, Send: make(chan []byte, sendBuffer)}
	select {
	case s.hub.register <- c:
	case <-s.done:
		conn.Close()
		return
	}
	log.Printf("web: client %s connected", r.RemoteAddr)

	// spawn read/write pumps
	go c.WritePump()
	go c.ReadPump()
}
