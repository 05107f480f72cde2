package notify

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, got %d", n, h.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PublishReachesClient(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	hub.Publish(&models.Order{ID: "o-1", OrderID: "ORD-1", OrderStatus: models.StatusDispatched})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got models.Order
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.OrderID != "ORD-1" || got.OrderStatus != models.StatusDispatched {
		t.Errorf("Expected ORD-1 Dispatched, got %s %s", got.OrderID, got.OrderStatus)
	}
}

func TestHub_ClientRemovedOnDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_PublishDoesNotBlockOnSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &client{send: make(chan []byte, 1)}
	hub.add(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			hub.Publish(&models.Order{ID: "o-1", OrderStatus: models.StatusConfirmed})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected Publish to return without a reader")
	}
	if hub.Clients() != 0 {
		t.Errorf("Expected slow client to be dropped, got %d clients", hub.Clients())
	}
	if _, open := <-slow.send; !open {
		t.Error("Expected the buffered message before the channel closed")
	}
	if _, open := <-slow.send; open {
		t.Error("Expected send channel to be closed")
	}
}
