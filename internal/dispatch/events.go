package dispatch

import (
	"context"
	"log"
)

// SystemEventKind names an internal control event.
type SystemEventKind string

const (
	// SystemEventReconfigure means a guild's settings changed; the engine
	// refreshes the settings cache, runs update handlers and redeploys.
	SystemEventReconfigure SystemEventKind = "reconfigure"
)

type SystemEvent struct {
	Kind    SystemEventKind
	GuildID string
}

// Publish queues a system event. The queue is bounded; when it is full the
// event is dropped with a warning rather than blocking the caller, which may
// be inside an interaction handler.
func (e *Engine) Publish(ev SystemEvent) {
	select {
	case e.events <- ev:
	default:
		log.Printf("[WARN] System event queue full, dropping %s for guild %s", ev.Kind, ev.GuildID)
	}
}

// Run consumes system events until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.events:
			e.handleSystemEvent(ev)
		}
	}
}

func (e *Engine) handleSystemEvent(ev SystemEvent) {
	switch ev.Kind {
	case SystemEventReconfigure:
		log.Printf("[INFO] Reconfiguring guild %s", ev.GuildID)
		e.TriggerUpdate(ev.GuildID)
		if err := e.Deploy(ev.GuildID); err != nil {
			log.Printf("[ERR] Redeploy after reconfigure failed: %v", err)
		}
	default:
		log.Printf("[WARN] Unknown system event kind: %s", ev.Kind)
	}
}
