package sse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/cpidash/internal/models"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeReloaded, Data: map[string]string{"load_id": "l1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: dataset.reloaded") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"load_id":"l1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

// drain collects the event types currently buffered on ch.
func drain(ch chan []byte) []string {
	var types []string
	for {
		select {
		case msg := <-ch:
			line, _, _ := strings.Cut(string(msg), "\n")
			types = append(types, strings.TrimPrefix(line, "event: "))
		default:
			return types
		}
	}
}

func TestPublishDatasetEvent_ChartsStaleThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First reload should trigger charts.stale.
	b.PublishDatasetEvent("reloaded", models.LoadInfo{ID: "a", Rows: 3}, nil)
	// Second reload immediately should NOT trigger another one.
	b.PublishDatasetEvent("reloaded", models.LoadInfo{ID: "b", Rows: 4}, nil)

	time.Sleep(50 * time.Millisecond)
	stale, reloaded := 0, 0
	for _, typ := range drain(ch) {
		switch typ {
		case TypeChartsStale:
			stale++
		case TypeReloaded:
			reloaded++
		}
	}
	if reloaded != 2 {
		t.Errorf("reloaded events = %d, want 2", reloaded)
	}
	if stale != 1 {
		t.Errorf("charts.stale events = %d, want 1 (throttled)", stale)
	}
}

func TestPublishDatasetEvent_FailedAndUnchanged(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDatasetEvent("failed", models.LoadInfo{}, errors.New("bad label"))
	b.PublishDatasetEvent("unchanged", models.LoadInfo{ID: "a"}, nil)

	var msgs []string
	deadline := time.After(time.Second)
	for len(msgs) < 2 {
		select {
		case msg := <-ch:
			msgs = append(msgs, string(msg))
		case <-deadline:
			t.Fatalf("got %d messages, want 2", len(msgs))
		}
	}
	if !strings.HasPrefix(msgs[0], "event: dataset.failed") || !strings.Contains(msgs[0], `"error":"bad label"`) {
		t.Errorf("failed event = %q", msgs[0])
	}
	if !strings.HasPrefix(msgs[1], "event: dataset.unchanged") {
		t.Errorf("unchanged event = %q", msgs[1])
	}
	time.Sleep(50 * time.Millisecond)
	if rest := drain(ch); len(rest) != 0 {
		t.Errorf("unexpected extra events %v (charts.stale only follows reloads)", rest)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeUnchanged, Data: map[string]string{"load_id": "x"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: dataset.unchanged") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: TypeChartsStale, Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeReloaded, Data: map[string]string{}})
	b.PublishDatasetEvent("reloaded", models.LoadInfo{ID: "x"}, nil)
}
