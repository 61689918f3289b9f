package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// testClient builds a Client with a buffered send channel and no connection.
func testClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, clientBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := testClient(hub)
	c2 := testClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client, got %d", got)
	}

	// Unregistering twice must not panic or double-close.
	hub.Unregister(c1)
	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastLedgerEvent(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := testClient(hub)
	c2 := testClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	hub.Broadcast(LedgerEvent("consumed", 42, 30, 7))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "ledger_consumed" || got.Entity != "ledger" {
				t.Errorf("unexpected message %+v", got)
			}
			if got.AccountID != 42 {
				t.Errorf("account_id = %d, want 42", got.AccountID)
			}
			if got.Extra["balance"] != float64(30) || got.Extra["transaction_id"] != float64(7) {
				t.Errorf("unexpected extra %v", got.Extra)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for broadcast")
		}
	}
}

func TestDisclosureEvent(t *testing.T) {
	msg := DisclosureEvent(5, 9)
	if msg.Type != "disclosure_completed" || msg.Action != "completed" {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.AccountID != 5 || msg.Extra["candidate_id"] != int64(9) {
		t.Errorf("unexpected payload %+v", msg)
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// No clients connected; must not panic.
	hub.Broadcast(DisclosureEvent(1, 2))
}

func TestBroadcastDropsOnFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())
	c := testClient(hub)
	hub.Register(c)

	for i := 0; i <= clientBufferSize; i++ {
		hub.Broadcast(LedgerEvent("granted", int64(i), 0, 0))
	}

	// The overflow message was dropped rather than blocking the broadcaster.
	count := 0
	for {
		select {
		case <-c.send:
			count++
			continue
		default:
		}
		break
	}
	if count != clientBufferSize {
		t.Errorf("delivered = %d, want %d", count, clientBufferSize)
	}
}

func TestConcurrentRegisterBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := testClient(hub)
			hub.Register(c)
			hub.Broadcast(LedgerEvent("granted", 0, 0, 0))
			for {
				select {
				case <-c.send:
					continue
				default:
				}
				break
			}
			hub.Unregister(c)
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients, got %d", got)
	}
}
