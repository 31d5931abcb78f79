package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(hub *Hub) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := int64(1)
		if v := r.URL.Query().Get("user_id"); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				userID = parsed
			}
		}
		hub.HandleWebSocket(w, r, userID)
	}))
}

func dial(t *testing.T, server *httptest.Server, userID int64) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + server.URL[4:] + "?user_id=" + strconv.FormatInt(userID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	return conn
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newTestServer(hub)
	defer server.Close()

	conn := dial(t, server, 1)

	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	connections, exists := hub.connections[1]
	hub.mu.RUnlock()

	if !exists {
		t.Fatal("connection should be registered")
	}
	if len(connections) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(connections))
	}

	conn.Close()
	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	_, exists = hub.connections[1]
	hub.mu.RUnlock()

	if exists {
		t.Fatal("connection should be unregistered")
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newTestServer(hub)
	defer server.Close()

	conn := dial(t, server, 1)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	message := &Message{
		Type:    "test",
		Channel: "test_channel",
		Data:    map[string]interface{}{"test": "data"},
	}
	hub.Broadcast(1, message)

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	if received.Type != "test" {
		t.Errorf("expected type 'test', got '%s'", received.Type)
	}
	if received.Channel != "test_channel" {
		t.Errorf("expected channel 'test_channel', got '%s'", received.Channel)
	}
	if received.UserID != 1 {
		t.Errorf("expected userID 1, got %d", received.UserID)
	}
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newTestServer(hub)
	defer server.Close()

	conn1 := dial(t, server, 1)
	defer conn1.Close()
	conn2 := dial(t, server, 2)
	defer conn2.Close()

	time.Sleep(100 * time.Millisecond)

	hub.BroadcastAll(&Message{
		Type:    "payment_settled",
		Channel: "payments",
		Data:    map[string]interface{}{"payment_id": "pay-1"},
	})

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		var received Message
		if err := conn.ReadJSON(&received); err != nil {
			t.Fatalf("connection %d failed to read message: %v", i+1, err)
		}
		if received.Type != "payment_settled" {
			t.Errorf("connection %d: expected type 'payment_settled', got '%s'", i+1, received.Type)
		}
	}
}

func TestHub_MultipleConnections(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newTestServer(hub)
	defer server.Close()

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn := dial(t, server, 1)
		conns = append(conns, conn)
		defer conn.Close()
	}

	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	connections, exists := hub.connections[1]
	hub.mu.RUnlock()

	if !exists {
		t.Fatal("connections should be registered")
	}
	if len(connections) != 3 {
		t.Fatalf("expected 3 connections, got %d", len(connections))
	}

	hub.Broadcast(1, &Message{
		Type:    "broadcast",
		Channel: "test",
		Data:    map[string]interface{}{"test": "data"},
	})

	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(idx int, c *websocket.Conn) {
			defer wg.Done()
			c.SetReadDeadline(time.Now().Add(1 * time.Second))
			var received Message
			if err := c.ReadJSON(&received); err != nil {
				t.Errorf("connection %d failed to read message: %v", idx, err)
				return
			}
			if received.Type != "broadcast" {
				t.Errorf("connection %d: expected type 'broadcast', got '%s'", idx, received.Type)
			}
		}(i, conn)
	}
	wg.Wait()
}

func TestHub_DifferentUsers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newTestServer(hub)
	defer server.Close()

	conn1 := dial(t, server, 1)
	defer conn1.Close()
	conn2 := dial(t, server, 2)
	defer conn2.Close()

	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(1, &Message{
		Type:    "private",
		Channel: "test",
		Data:    map[string]interface{}{"test": "data"},
	})

	conn1.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received1 Message
	if err := conn1.ReadJSON(&received1); err != nil {
		t.Fatalf("user 1 failed to read message: %v", err)
	}
	if received1.Type != "private" {
		t.Errorf("user 1: expected type 'private', got '%s'", received1.Type)
	}

	conn2.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var received2 Message
	if err := conn2.ReadJSON(&received2); err == nil {
		t.Error("user 2 should not receive a message addressed to user 1")
	}
}

func TestHub_BroadcastChannelFull(t *testing.T) {
	hub := NewHub()
	hub.broadcast = make(chan *Message, 1)

	hub.broadcast <- &Message{Type: "fill"}

	// channel is full now, this send must be dropped instead of blocking
	hub.Broadcast(1, &Message{
		Type:    "dropped",
		Channel: "test",
		Data:    map[string]interface{}{"test": "data"},
	})

	msg := <-hub.broadcast
	if msg.Type == "dropped" {
		t.Error("message should be dropped when channel is full")
	}
	select {
	case msg := <-hub.broadcast:
		t.Errorf("unexpected extra message %q in channel", msg.Type)
	default:
	}
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	go hub.Run(ctx)

	server := newTestServer(hub)
	defer server.Close()

	conn := dial(t, server, 1)

	time.Sleep(50 * time.Millisecond)

	cancel()
	time.Sleep(100 * time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection closed after hub shutdown")
	}

	conn.Close()
}
