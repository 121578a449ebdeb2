package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"snake-qlearning/game/types"
)

func TestNewHub(t *testing.T) {
	hub := NewHub("run-1", nil)

	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels not initialised")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub("run-1", nil)
	client := &Client{hub: hub, send: make(chan []byte, 1)}

	hub.registerClient(client)
	if !hub.clients[client] || hub.ClientCount() != 1 {
		t.Fatal("client was not registered")
	}

	hub.unregisterClient(client)
	if hub.clients[client] || hub.ClientCount() != 0 {
		t.Fatal("client was not unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel not closed on unregister")
	}

	// Unregistering twice must not panic on the closed channel.
	hub.unregisterClient(client)
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub("run-1", nil)
	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage([]byte("frame"))

	if hub.ClientCount() != 0 {
		t.Error("slow client was not dropped")
	}
}

func TestHubRenderDoesNotBlock(t *testing.T) {
	hub := NewHub("run-1", nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*4; i++ {
			hub.Render(types.Snapshot{Score: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Render blocked without a running hub")
	}
}

func TestHubStreamsSnapshots(t *testing.T) {
	hub := NewHub("run-42", nil)
	go hub.Run()
	defer hub.Close()

	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("spectator never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	snap := types.Snapshot{
		Grid:  types.Grid{Width: 5, Height: 5},
		Snake: []types.Point{{X: 2, Y: 2}, {X: 1, Y: 2}, {X: 0, Y: 2}},
		Food:  types.Point{X: 4, Y: 2},
		Score: 7,
	}
	if err := hub.Render(snap); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.RunID != "run-42" || msg.Event != "state_update" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Snapshot == nil || msg.Snapshot.Score != 7 || len(msg.Snapshot.Snake) != 3 {
		t.Errorf("snapshot = %+v", msg.Snapshot)
	}
}

func TestHubCloseNotifiesSpectators(t *testing.T) {
	hub := NewHub("run-7", nil)
	go hub.Run()

	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("spectator never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := hub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := hub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.Event != "closed" {
		t.Errorf("event = %q, want closed", msg.Event)
	}

	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after hub Close")
	}
}
