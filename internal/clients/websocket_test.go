package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	ws "taka-billing/internal/transport/websocket"
)

func dialTestHub(t *testing.T, hub *ws.Hub, userID int64) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, userID)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// wait for registration
	time.Sleep(100 * time.Millisecond)
	return conn
}

func readData(t *testing.T, conn *websocket.Conn) (ws.Message, map[string]interface{}) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received ws.Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	dataBytes, err := json.Marshal(received.Data)
	if err != nil {
		t.Fatalf("failed to marshal data: %v", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		t.Fatalf("failed to unmarshal data: %v", err)
	}
	return received, data
}

func TestWebSocketClient_NotifyPaymentSettled(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestHub(t, hub, 1)

	client := NewWebSocketClient(hub)
	err := client.NotifyPaymentSettled(context.Background(), "cust-1", "pay-1", "600.00", "400.00")
	if err != nil {
		t.Fatalf("failed to notify: %v", err)
	}

	received, data := readData(t, conn)

	if received.Type != "payment_settled" {
		t.Errorf("expected type 'payment_settled', got '%s'", received.Type)
	}
	if received.Channel != "payments" {
		t.Errorf("expected channel 'payments', got '%s'", received.Channel)
	}
	if data["customer_id"] != "cust-1" {
		t.Errorf("expected customer_id 'cust-1', got '%v'", data["customer_id"])
	}
	if data["amount"] != "600.00" {
		t.Errorf("expected amount '600.00', got '%v'", data["amount"])
	}
	if data["new_balance"] != "400.00" {
		t.Errorf("expected new_balance '400.00', got '%v'", data["new_balance"])
	}
}

func TestWebSocketClient_NotifyExportProgress(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestHub(t, hub, 1)

	client := NewWebSocketClient(hub)
	err := client.NotifyExportProgress(context.Background(), 1, "export-123", 50.5, "")
	if err != nil {
		t.Fatalf("failed to notify progress: %v", err)
	}

	received, data := readData(t, conn)

	if received.Type != "export_progress" {
		t.Errorf("expected type 'export_progress', got '%s'", received.Type)
	}
	if received.UserID != 1 {
		t.Errorf("expected userID 1, got %d", received.UserID)
	}
	if received.Channel != "export_progress#1" {
		t.Errorf("expected channel 'export_progress#1', got '%s'", received.Channel)
	}
	if data["id"] != "export-123" {
		t.Errorf("expected id 'export-123', got '%v'", data["id"])
	}
	if data["progress"].(float64) != 50.5 {
		t.Errorf("expected progress 50.5, got %v", data["progress"])
	}
}

func TestWebSocketClient_NotifyExportComplete(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestHub(t, hub, 1)

	client := NewWebSocketClient(hub)
	err := client.NotifyExportComplete(context.Background(), 1, "export-123", "https://example.com/file.xlsx", "receipts_20260101.xlsx")
	if err != nil {
		t.Fatalf("failed to notify complete: %v", err)
	}

	received, data := readData(t, conn)

	if received.Type != "export_complete" {
		t.Errorf("expected type 'export_complete', got '%s'", received.Type)
	}
	if received.Channel != "export_complete#1" {
		t.Errorf("expected channel 'export_complete#1', got '%s'", received.Channel)
	}
	if data["url"] != "https://example.com/file.xlsx" {
		t.Errorf("expected url 'https://example.com/file.xlsx', got '%v'", data["url"])
	}
	if data["filename"] != "receipts_20260101.xlsx" {
		t.Errorf("expected filename 'receipts_20260101.xlsx', got '%v'", data["filename"])
	}
}

func TestWebSocketClient_NotifyExportFailed(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestHub(t, hub, 1)

	client := NewWebSocketClient(hub)
	err := client.NotifyExportFailed(context.Background(), 1, "export-123", "upload failed")
	if err != nil {
		t.Fatalf("failed to notify failed: %v", err)
	}

	received, data := readData(t, conn)

	if received.Type != "export_failed" {
		t.Errorf("expected type 'export_failed', got '%s'", received.Type)
	}
	if received.Channel != "export_failed#1" {
		t.Errorf("expected channel 'export_failed#1', got '%s'", received.Channel)
	}
	if data["message"] != "upload failed" {
		t.Errorf("expected message 'upload failed', got '%v'", data["message"])
	}
}

func TestWebSocketClient_NilHub(t *testing.T) {
	client := NewWebSocketClient(nil)

	if err := client.NotifyPaymentSettled(context.Background(), "c", "p", "1.00", "0.00"); err != nil {
		t.Errorf("should not return error with nil hub, got: %v", err)
	}
	if err := client.NotifyExportProgress(context.Background(), 1, "export-123", 50.5, ""); err != nil {
		t.Errorf("should not return error with nil hub, got: %v", err)
	}
	if err := client.NotifyExportComplete(context.Background(), 1, "export-123", "https://example.com/f.xlsx", "f.xlsx"); err != nil {
		t.Errorf("should not return error with nil hub, got: %v", err)
	}
}
