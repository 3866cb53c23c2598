package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/formweave/formweave/internal/registry"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub(slog.Default())
	if hub.clients == nil {
		t.Error("clients map not initialized")
	}
	if hub.broadcast == nil {
		t.Error("broadcast channel not initialized")
	}
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := runHub(t)

	client := &Client{hub: hub, send: make(chan []byte, 256)}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)
	if got := hub.ClientCount(); got != 1 {
		t.Errorf("after register: ClientCount() = %d, want 1", got)
	}

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("after unregister: ClientCount() = %d, want 0", got)
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := runHub(t)

	c1 := &Client{hub: hub, send: make(chan []byte, 256)}
	c2 := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.register <- c1
	hub.register <- c2
	time.Sleep(50 * time.Millisecond)

	msg := []byte(`{"type":"test"}`)
	hub.Broadcast(msg)

	for i, c := range []*Client{c1, c2} {
		select {
		case got := <-c.send:
			if string(got) != string(msg) {
				t.Errorf("client %d got %q, want %q", i, got, msg)
			}
		case <-time.After(time.Second):
			t.Errorf("client %d did not receive broadcast", i)
		}
	}
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	hub := runHub(t)

	slow := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- slow
	time.Sleep(50 * time.Millisecond)

	// Fill the buffer so the next broadcast cannot be delivered.
	slow.send <- []byte("filler")

	hub.Broadcast([]byte("overflow"))
	time.Sleep(50 * time.Millisecond)

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("slow client should be dropped, ClientCount() = %d, want 0", got)
	}
}

func TestHubConcurrentBroadcastAndCount(t *testing.T) {
	// Dropping slow clients mutates the client map inside the broadcast
	// branch, so it must exclude concurrent ClientCount readers. Run with
	// -race to catch a regression to a read lock there.
	hub := runHub(t)

	for i := 0; i < 8; i++ {
		c := &Client{hub: hub, send: make(chan []byte, 1)}
		hub.register <- c
		c.send <- []byte("filler") // every broadcast overflows and drops
	}
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.ClientCount()
		}
	}()
	for i := 0; i < 100; i++ {
		hub.Broadcast([]byte("tick"))
	}
	<-done

	time.Sleep(50 * time.Millisecond)
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("slow clients should all be dropped, ClientCount() = %d", got)
	}
}

func TestBroadcastChange(t *testing.T) {
	hub := runHub(t)

	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastChange(registry.ChangeEvent{
		Op: "activated",
		Entry: &registry.Entry{
			ID:     "e1",
			Entity: "invoice",
			Status: registry.StatusActive,
		},
	})

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal error: %v", err)
		}
		if msg.Type != MsgSchemaActivated {
			t.Errorf("type = %q, want %q", msg.Type, MsgSchemaActivated)
		}
		var e registry.Entry
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			t.Fatalf("unmarshal payload error: %v", err)
		}
		if e.ID != "e1" || e.Entity != "invoice" {
			t.Errorf("entry = %+v", e)
		}
	case <-time.After(time.Second):
		t.Error("did not receive activation broadcast")
	}
}

func TestBroadcastChangeUnknownOpIsDropped(t *testing.T) {
	hub := runHub(t)

	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastChange(registry.ChangeEvent{Op: "compacted"})

	select {
	case data := <-client.send:
		t.Errorf("unexpected broadcast: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastError(t *testing.T) {
	hub := runHub(t)

	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastError("store unavailable")

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal error: %v", err)
		}
		if msg.Type != MsgError {
			t.Errorf("type = %q, want %q", msg.Type, MsgError)
		}
		var p map[string]string
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			t.Fatalf("unmarshal payload error: %v", err)
		}
		if p["message"] != "store unavailable" {
			t.Errorf("error message = %q", p["message"])
		}
	case <-time.After(time.Second):
		t.Error("did not receive error broadcast")
	}
}

func TestEventTypeMapping(t *testing.T) {
	cases := map[string]MessageType{
		"created":   MsgSchemaCreated,
		"updated":   MsgSchemaUpdated,
		"activated": MsgSchemaActivated,
		"deleted":   MsgSchemaDeleted,
	}
	for op, want := range cases {
		got, ok := EventType(op)
		if !ok || got != want {
			t.Errorf("EventType(%q) = %q, %v", op, got, ok)
		}
	}
	if _, ok := EventType("compacted"); ok {
		t.Error("unexpected mapping for unknown op")
	}
}

func TestSetCatalogProvider(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.SetCatalogProvider(func() ([]byte, error) {
		return []byte(`[{"entity":"invoice"}]`), nil
	})
	if hub.catalog == nil {
		t.Fatal("catalog provider not set")
	}
	data, err := hub.catalog()
	if err != nil {
		t.Fatalf("catalog provider error: %v", err)
	}
	if string(data) != `[{"entity":"invoice"}]` {
		t.Errorf("catalog = %s", data)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	hub := NewHub(slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("clients not released on shutdown, ClientCount() = %d", got)
	}
}
