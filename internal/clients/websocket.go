package clients

import (
	"context"
	"fmt"

	ws "taka-billing/internal/transport/websocket"
)

// WebSocketClient pushes settlement and export events to connected operator
// dashboards.
type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

// NotifyPaymentSettled announces a committed settlement to every connected
// operator.
func (c *WebSocketClient) NotifyPaymentSettled(
	ctx context.Context,
	customerID string,
	paymentID string,
	amount string,
	newBalance string,
) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "payment_settled",
		Channel: "payments",
		Data: map[string]interface{}{
			"customer_id": customerID,
			"payment_id":  paymentID,
			"amount":      amount,
			"new_balance": newBalance,
		},
	}

	c.hub.BroadcastAll(message)
	return nil
}

func (c *WebSocketClient) NotifyExportProgress(
	ctx context.Context,
	userID int64,
	exportID string,
	progress float64,
	stage string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("export_progress#%d", userID)
	data := map[string]interface{}{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	message := &ws.Message{
		Type:    "export_progress",
		Channel: channel,
		Data:    data,
	}

	c.hub.Broadcast(userID, message)
	return nil
}

func (c *WebSocketClient) NotifyExportComplete(
	ctx context.Context,
	userID int64,
	exportID string,
	url string,
	filename string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("export_complete#%d", userID)
	message := &ws.Message{
		Type:    "export_complete",
		Channel: channel,
		Data: map[string]interface{}{
			"id":       exportID,
			"url":      url,
			"filename": filename,
			"user_id":  userID,
		},
	}

	c.hub.Broadcast(userID, message)
	return nil
}

// NotifyExportFailed tells a user their export failed with the given message.
func (c *WebSocketClient) NotifyExportFailed(ctx context.Context, userID int64, exportID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("export_failed#%d", userID)
	message := &ws.Message{
		Type:    "export_failed",
		Channel: channel,
		Data: map[string]interface{}{
			"id":      exportID,
			"message": errMsg,
			"user_id": userID,
		},
	}

	c.hub.Broadcast(userID, message)
	return nil
}
