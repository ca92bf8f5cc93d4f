package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
	"github.com/gorilla/websocket"
	"github.com/retroenv/retrogolib/assert"
)

func startServer(t *testing.T, ops ...uint16) (*emu.Machine, *httptest.Server) {
	t.Helper()
	return startServerWith(t, nil, ops...)
}

func startServerWith(t *testing.T, origins []string, ops ...uint16) (*emu.Machine, *httptest.Server) {
	t.Helper()
	m, err := emu.New(emu.DefaultConfig())
	assert.NoError(t, err)
	assert.NoError(t, m.LoadROM(rom.FromInstructions(ops...)))

	s := NewServer(m, origins...)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return m, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil returns the first message of the given type.
func readUntil(t *testing.T, conn *websocket.Conn, typ byte) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(msg) > 0 && msg[0] == typ {
			return msg
		}
	}
}

func TestServer_IndexPage(t *testing.T) {
	_, ts := startServer(t, 0x1200)
	resp, err := http.Get(ts.URL + "/")
	assert.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	if !strings.Contains(string(body), "<canvas") {
		t.Fatalf("index page has no canvas")
	}

	resp, err = http.Get(ts.URL + "/missing")
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_SendsFrame(t *testing.T) {
	// I = glyph 0, draw it at (0,0), loop
	_, ts := startServer(t, 0x6000, 0xF029, 0xD005, 0x1206)
	conn := dial(t, ts)

	msg := readUntil(t, conn, Frame)
	assert.Equal(t, 3+64*32/8, len(msg))
	assert.Equal(t, byte(64), msg[1])
	assert.Equal(t, byte(32), msg[2])
}

func TestServer_KeyResumesWait(t *testing.T) {
	// LD V0, K ; JP 202
	m, ts := startServer(t, 0xF00A, 0x1202)
	assert.NoError(t, m.Step())
	assert.Equal(t, cpu.WaitingForKey, m.State())

	conn := dial(t, ts)
	readUntil(t, conn, Frame)
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{Key, 0x5, 1}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for m.State() != cpu.Running {
		if time.Now().After(deadline) {
			t.Fatalf("machine still %v after key press", m.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, byte(0x5), m.Registers().V[0])
}

func TestServer_ControlReset(t *testing.T) {
	m, ts := startServer(t, 0x6042, 0x1202)
	assert.NoError(t, m.Step())
	assert.Equal(t, byte(0x42), m.Registers().V[0])

	conn := dial(t, ts)
	readUntil(t, conn, Frame)
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{Control, ControlReset}); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for m.Registers().PC != 0x200 {
		if time.Now().After(deadline) {
			t.Fatalf("reset not applied, PC=%03X", m.Registers().PC)
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, byte(0), m.Registers().V[0])
}

func TestServer_CheckOrigin(t *testing.T) {
	_, ts := startServerWith(t, []string{"http://trusted.example:8080/"}, 0x1200)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	tests := []struct {
		origin string
		ok     bool
	}{
		{"", true},
		{ts.URL, true},
		{"http://trusted.example:8080", true},
		{"http://evil.example", false},
		{"http://trusted.example", false},
	}
	for _, tt := range tests {
		header := http.Header{}
		if tt.origin != "" {
			header.Set("Origin", tt.origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(url, header)
		if tt.ok {
			if err != nil {
				t.Fatalf("origin %q: %v", tt.origin, err)
			}
			conn.Close()
			continue
		}
		if err == nil {
			conn.Close()
			t.Fatalf("origin %q: connection accepted", tt.origin)
		}
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}
