package connection

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockVibinServer creates a test Vibin WebSocket server. handler is called
// with a 1-based connection number for every accepted connection.
func mockVibinServer(t *testing.T, handler func(int, *websocket.Conn)) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	var count atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(int(count.Add(1)), conn)
	}))
	t.Cleanup(server.Close)

	return server, &count
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// holdOpen keeps the connection open until the client goes away.
func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// pingEvery sends pings at interval while draining client frames so pongs
// are processed. Once stop is closed it stops pinging and waits for the
// client to go away.
func pingEvery(conn *websocket.Conn, interval time.Duration, stop <-chan struct{}) {
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		holdOpen(conn)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			<-readerDone
			return
		case <-readerDone:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}

// silentListener accepts TCP connections and never answers the handshake.
func silentListener(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	return "ws://" + ln.Addr().String() + "/ws"
}

// closedPort returns a ws URL on a port nothing listens on.
func closedPort(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return "ws://" + addr + "/ws"
}

// testConfig returns connection timings suitable for tests.
func testConfig() Config {
	return Config{
		HandshakeTimeout:    200 * time.Millisecond,
		TickInterval:        10 * time.Millisecond,
		DefaultSilence:      5 * time.Second,
		SilenceFactor:       1.25,
		MinKeepaliveSamples: 3,
		KeepaliveWindow:     10,
		WriteTimeout:        time.Second,
	}
}
