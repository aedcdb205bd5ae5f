package sse

import (
	"encoding/json"
	"testing"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	a := &Client{ID: "a", UserID: "u1", Events: make(chan Event, 4)}
	b := &Client{ID: "b", UserID: "u2", Events: make(chan Event, 4)}
	hub.Register(a)
	hub.Register(b)

	if hub.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.ClientCount())
	}

	hub.PublishStockUpdate("tt-1", "checkout")

	for _, c := range []*Client{a, b} {
		select {
		case ev := <-c.Events:
			if ev.EventType != EventStockUpdate {
				t.Fatalf("client %s: unexpected event type %s", c.ID, ev.EventType)
			}
			var payload map[string]string
			if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
				t.Fatalf("client %s: bad payload %q: %v", c.ID, ev.Data, err)
			}
			if payload["tool_type_id"] != "tt-1" || payload["action"] != "checkout" {
				t.Fatalf("client %s: unexpected payload %v", c.ID, payload)
			}
		default:
			t.Fatalf("client %s received nothing", c.ID)
		}
	}
}

func TestHubSkipsFullClients(t *testing.T) {
	hub := NewHub(nil)
	slow := &Client{ID: "slow", Events: make(chan Event, 1)}
	hub.Register(slow)

	hub.PublishOrderUpdate("o-1", "SENT", "send")
	hub.PublishOrderUpdate("o-1", "COMPLETED", "fulfillment")

	if got := len(slow.Events); got != 1 {
		t.Fatalf("expected buffered 1 event, got %d", got)
	}
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(nil)
	c := &Client{ID: "c", Events: make(chan Event, 1)}
	hub.Register(c)
	hub.Unregister("c")
	hub.Unregister("c")

	if _, ok := <-c.Events; ok {
		t.Fatal("expected closed channel after unregister")
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients, got %d", hub.ClientCount())
	}
}

func TestNilHubPublishesNothing(t *testing.T) {
	var hub *Hub
	hub.PublishStockUpdate("tt-1", "checkout")
	hub.PublishOrderUpdate("o-1", "SENT", "send")
}
