package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
	"github.com/cespare/xxhash"
	"github.com/gorilla/websocket"
)

//go:embed index.html
var indexHTML []byte

// Server streams the machine's display to browsers over a websocket and
// feeds their key presses back into the keypad.
type Server struct {
	m    *emu.Machine
	hub  *hub
	done chan struct{}
	mux  *http.ServeMux

	upgrader websocket.Upgrader
	origins  map[string]bool

	lastHash  uint64
	lastSound bool
	lastState string
}

// NewServer serves m. Websocket connections are accepted from the page's own
// host and from allowedOrigins, given as "scheme://host[:port]".
func NewServer(m *emu.Machine, allowedOrigins ...string) *Server {
	s := &Server{m: m, hub: newHub(), done: make(chan struct{}), mux: http.NewServeMux()}
	s.origins = make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		s.origins[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024 * 4,
		CheckOrigin:     s.checkOrigin,
	}
	s.mux.HandleFunc("/ws", s.serveWS)
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// Run pumps frames to connected clients at 60 Hz until ctx is cancelled.
// Frames are only sent when the picture changed.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		close(s.done)
	}()
	go s.hub.run(ctx)

	t := time.NewTicker(time.Second / timer.Hz)
	defer t.Stop()
	s.publish(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.publish(ctx)
		}
	}
}

func (s *Server) publish(ctx context.Context) {
	w, h, bits := s.m.Packed()
	hash := xxhash.Sum64(append([]byte{byte(w), byte(h)}, bits...))
	if hash != s.lastHash {
		s.lastHash = hash
		s.send(ctx, append([]byte{Frame, byte(w), byte(h)}, bits...))
	}
	if on := s.m.SoundActive(); on != s.lastSound {
		s.lastSound = on
		v := byte(0)
		if on {
			v = 1
		}
		s.send(ctx, []byte{Sound, v})
	}
	state := s.m.State().String()
	if err := s.m.Err(); err != nil {
		state += ": " + err.Error()
	}
	if state != s.lastState {
		s.lastState = state
		s.send(ctx, append([]byte{Status}, state...))
	}
}

func (s *Server) send(ctx context.Context, msg []byte) {
	select {
	case s.hub.broadcast <- msg:
	case <-ctx.Done():
	}
}

// ListenAndServe serves the page and websocket on addr and runs the frame
// pump. It returns when ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Printf("web: serving on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("web server: %w", err)
		}
		close(errc)
	}()
	go func() { _ = s.Run(ctx) }()

	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
