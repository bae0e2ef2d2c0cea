package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// mockWSServer accepts every upgrade and hands the connection to handler.
func mockWSServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		if handler != nil {
			handler(conn)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func echoHandler(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if err := conn.Write(ctx, msgType, data); err != nil {
			return
		}
	}
}

func drainHandler(count *atomic.Int32) func(conn *websocket.Conn) {
	return func(conn *websocket.Conn) {
		ctx := context.Background()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
			if count != nil {
				count.Add(1)
			}
		}
	}
}

func newConnected(t *testing.T, srv *httptest.Server, mutate func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig(wsURL(srv), "test")
	cfg.PingInterval = 0
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return client
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{Name: "test"}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestClient_Connect_Success(t *testing.T) {
	srv := mockWSServer(t, drainHandler(nil))
	client := newConnected(t, srv, nil)

	if client.State() != StateConnected {
		t.Errorf("expected state %v, got %v", StateConnected, client.State())
	}
	if !client.IsConnected() {
		t.Error("expected IsConnected() to return true")
	}
}

func TestClient_Connect_Failure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	cfg := DefaultConfig(url, "test")
	cfg.PingInterval = 0

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err == nil {
		t.Fatal("expected Connect to fail against a closed server")
	}
	if client.State() != StateDisconnected {
		t.Errorf("expected state %v, got %v", StateDisconnected, client.State())
	}
}

func TestClient_SendBeforeConnect(t *testing.T) {
	client, err := New(DefaultConfig("ws://127.0.0.1:1", "test"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	tests := []struct {
		name string
		send func() error
	}{
		{name: "send", send: func() error { return client.Send(context.Background(), []byte("x")) }},
		{name: "send_json", send: func() error { return client.SendJSON(context.Background(), map[string]int{"id": 1}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.send(); err != ErrNotConnected {
				t.Errorf("expected ErrNotConnected, got %v", err)
			}
		})
	}
}

func TestClient_SendJSON(t *testing.T) {
	received := make(chan []byte, 1)
	srv := mockWSServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			return
		}
		received <- data
	})
	client := newConnected(t, srv, nil)

	payload := map[string]any{
		"method": "SUBSCRIBE",
		"params": []string{"!miniTicker@arr"},
		"id":     1,
	}
	if err := client.SendJSON(context.Background(), payload); err != nil {
		t.Fatalf("SendJSON failed: %v", err)
	}

	var data []byte
	select {
	case data = <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive message")
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("received data is not valid JSON: %v\ndata: %s", err, data)
	}
	if parsed["method"] != "SUBSCRIBE" {
		t.Errorf("expected method=SUBSCRIBE, got %v", parsed["method"])
	}
}

func TestClient_MessageHandling(t *testing.T) {
	srv := mockWSServer(t, echoHandler)

	var (
		mu       sync.Mutex
		received []byte
	)
	got := make(chan struct{}, 1)

	client := newConnected(t, srv, nil)
	client.OnMessage(func(ctx context.Context, msg []byte) {
		mu.Lock()
		received = msg
		mu.Unlock()
		select {
		case got <- struct{}{}:
		default:
		}
	})

	msg := []byte(`{"s":"ETHBTC","c":"0.05"}`)
	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(received) != string(msg) {
		t.Errorf("expected %s, got %s", msg, received)
	}
}

func TestClient_StateChangeHandler(t *testing.T) {
	srv := mockWSServer(t, drainHandler(nil))

	cfg := DefaultConfig(wsURL(srv), "test")
	cfg.PingInterval = 0

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var (
		mu     sync.Mutex
		states []State
	)
	client.OnStateChange(func(state State, err error) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	want := []State{StateConnecting, StateConnected, StateClosed}
	if len(states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state %d: expected %v, got %v", i, want[i], states[i])
		}
	}
}

func TestClient_GracefulClose(t *testing.T) {
	srv := mockWSServer(t, drainHandler(nil))
	client := newConnected(t, srv, nil)

	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if client.State() != StateClosed {
		t.Errorf("expected state %v, got %v", StateClosed, client.State())
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close should not error: %v", err)
	}
	if err := client.Send(context.Background(), []byte("x")); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected after close, got %v", err)
	}
}

func TestClient_ConcurrentSend(t *testing.T) {
	var count atomic.Int32
	srv := mockWSServer(t, drainHandler(&count))
	client := newConnected(t, srv, nil)

	const (
		goroutines = 10
		perRoutine = 5
	)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range perRoutine {
				if err := client.SendJSON(context.Background(), map[string]int{"goroutine": id, "msg": j}); err != nil {
					t.Errorf("SendJSON failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	want := int32(goroutines * perRoutine)
	if !waitFor(t, 2*time.Second, func() bool { return count.Load() == want }) {
		t.Errorf("expected %d messages, server received %d", want, count.Load())
	}
}

func TestClient_MaxMessageSize(t *testing.T) {
	srv := mockWSServer(t, func(conn *websocket.Conn) {
		conn.Write(context.Background(), websocket.MessageText, []byte(strings.Repeat("A", 1<<20)))
		time.Sleep(500 * time.Millisecond)
	})
	client := newConnected(t, srv, func(cfg *Config) {
		cfg.MaxMessageSize = 100
		cfg.InitialBackoff = time.Minute
		cfg.MaxBackoff = time.Minute
	})

	if !waitFor(t, 2*time.Second, func() bool { return client.State() == StateReconnecting }) {
		t.Errorf("expected reconnecting after oversized message, got %v", client.State())
	}
}

func TestClient_Reconnect(t *testing.T) {
	var accepts atomic.Int32
	srv := mockWSServer(t, func(conn *websocket.Conn) {
		// first connection drops straight away, later ones stay up
		if accepts.Add(1) == 1 {
			return
		}
		drainHandler(nil)(conn)
	})

	cfg := DefaultConfig(wsURL(srv), "test")
	cfg.PingInterval = 0
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	var reconnecting atomic.Bool
	client.OnStateChange(func(state State, err error) {
		if state == StateReconnecting {
			reconnecting.Store(true)
		}
	})
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ok := waitFor(t, 3*time.Second, func() bool {
		return accepts.Load() >= 2 && client.IsConnected()
	})
	if !ok {
		t.Fatalf("expected reconnect, accepts=%d state=%v", accepts.Load(), client.State())
	}
	if !reconnecting.Load() {
		t.Error("expected a reconnecting state transition")
	}
}

func TestClient_MaxReconnects(t *testing.T) {
	stop := make(chan struct{})
	srv := mockWSServer(t, func(conn *websocket.Conn) { <-stop })

	cfg := DefaultConfig(wsURL(srv), "test")
	cfg.PingInterval = 0
	cfg.InitialBackoff = 5 * time.Millisecond
	cfg.MaxBackoff = 10 * time.Millisecond
	cfg.MaxReconnects = 2

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	// Shut the server so every redial fails.
	close(stop)
	srv.Close()

	if !waitFor(t, 3*time.Second, func() bool { return client.State() == StateDisconnected }) {
		t.Errorf("expected client to give up, got %v", client.State())
	}
}
