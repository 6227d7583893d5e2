package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newServerSideClient returns a Client whose pumps are NOT running, so the
// outbound queue can be inspected directly.
func newServerSideClient(t *testing.T, cfg Config) *Client {
	t.Helper()

	hub := NewHub(Options{Config: cfg})
	t.Cleanup(hub.Close)

	clientCh := make(chan *Client, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := newClient(hub, conn)
		if regErr := hub.register(c); regErr != nil {
			conn.Close()
			return
		}
		clientCh <- c
	}))
	t.Cleanup(ts.Close)

	dialConn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { dialConn.Close() })

	select {
	case c := <-clientCh:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server-side client")
		return nil
	}
}

func TestClient_OverflowDropsOldestKeepsNewest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 3
	cfg.OverflowLimit = 100 // keep the client open for this test
	cfg.StatsInterval = 0
	c := newServerSideClient(t, cfg)

	for _, frame := range []string{"e1", "e2", "e3", "e4", "e5"} {
		c.enqueue([]byte(frame))
	}

	// e1 and e2 were dropped; the queue holds the newest three in order.
	want := []string{"e3", "e4", "e5"}
	for _, w := range want {
		select {
		case got := <-c.send:
			if string(got) != w {
				t.Errorf("expected %s, got %s", w, got)
			}
		default:
			t.Fatalf("queue exhausted before %s", w)
		}
	}
	select {
	case got := <-c.send:
		t.Fatalf("unexpected extra frame %s", got)
	default:
	}
}

func TestClient_RepeatedOverflowClosesConnection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 1
	cfg.OverflowLimit = 3
	cfg.OverflowWindow = time.Minute
	cfg.StatsInterval = 0
	c := newServerSideClient(t, cfg)

	// First enqueue fills the queue; each further one overflows.
	for i := 0; i < 10; i++ {
		c.enqueue([]byte("x"))
	}

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("persistently slow client should have been closed")
	}

	if c.hub.ClientCount() != 0 {
		t.Errorf("closed client should be deregistered, count=%d", c.hub.ClientCount())
	}
}

func TestClient_OverflowWindowResets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 1
	cfg.OverflowLimit = 5
	cfg.OverflowWindow = 50 * time.Millisecond
	cfg.StatsInterval = 0
	c := newServerSideClient(t, cfg)

	// Overflow a few times, then wait out the window; the counter resets
	// and the client stays open.
	for i := 0; i < 4; i++ {
		c.enqueue([]byte("x"))
	}
	time.Sleep(80 * time.Millisecond)
	for i := 0; i < 4; i++ {
		c.enqueue([]byte("x"))
	}

	select {
	case <-c.done:
		t.Fatal("client should not be closed when overflows are spread across windows")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClient_EnqueueAfterCloseIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StatsInterval = 0
	c := newServerSideClient(t, cfg)

	c.close()
	c.enqueue([]byte("late"))

	select {
	case got := <-c.send:
		t.Fatalf("no frame should be queued after close, got %s", got)
	default:
	}
}
