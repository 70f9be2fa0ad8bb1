package bus

import (
	"context"
	"testing"
	"time"
)

func TestMemoryBusDelivers(t *testing.T) {
	b := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan CatalogEvent, 1)
	if err := b.StartForwarder(ctx, func(ev CatalogEvent) { got <- ev }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.Publish(ctx, CatalogEvent{Type: EventCatalogRefreshed, RunID: "r1", At: time.Now()}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case ev := <-got:
		if ev.Type != EventCatalogRefreshed || ev.RunID != "r1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Publish(context.Background(), CatalogEvent{Type: EventCatalogRefreshed}); err == nil {
		t.Fatalf("Publish after Close: expected error")
	}
}
