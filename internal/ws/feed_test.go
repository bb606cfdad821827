package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFeedBroadcast(t *testing.T) {
	feed := NewFeed()
	client := &Client{Send: make(chan []byte, 1)}
	feed.Register(client)
	defer client.Close()

	feed.Broadcast(DonationEvent{
		Reference:   "don-abc",
		DonorName:   "Jane",
		AmountCents: 5000,
		Currency:    "KES",
		Method:      "MPESA",
		CompletedAt: time.Now(),
	})

	select {
	case data := <-client.Send:
		var ev DonationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Type != "donation.completed" {
			t.Errorf("Type = %q, want donation.completed", ev.Type)
		}
		if ev.Reference != "don-abc" || ev.AmountCents != 5000 {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestFeedUnregisterOnClose(t *testing.T) {
	feed := NewFeed()
	client := &Client{Send: make(chan []byte, 1)}
	feed.Register(client)
	if feed.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", feed.ClientCount())
	}
	client.Close()
	if feed.ClientCount() != 0 {
		t.Errorf("ClientCount after close = %d, want 0", feed.ClientCount())
	}
	// Broadcast after close must not panic on the closed channel.
	feed.Broadcast(DonationEvent{Reference: "don-xyz"})
}

func TestFeedConcurrentCloseDuringBroadcast(t *testing.T) {
	feed := NewFeed()
	clients := make([]*Client, 2000)
	for i := range clients {
		clients[i] = &Client{Send: make(chan []byte, 1)}
		feed.Register(clients[i])
	}

	// Closing subscribers while a broadcast is in flight must never panic
	// with a send on a closed channel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			feed.Broadcast(DonationEvent{Reference: "don-race"})
		}
	}()
	for _, c := range clients {
		c.Close()
	}
	<-done

	if n := feed.ClientCount(); n != 0 {
		t.Errorf("ClientCount = %d, want 0", n)
	}
}

func TestFeedSkipsSlowClients(t *testing.T) {
	feed := NewFeed()
	slow := &Client{Send: make(chan []byte)} // unbuffered, nobody reading
	feed.Register(slow)
	done := make(chan struct{})
	go func() {
		feed.Broadcast(DonationEvent{Reference: "don-1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on slow client")
	}
}
