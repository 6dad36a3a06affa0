package dispatch

import (
	"log"
	"sync"

	"scriptbot/internal/script"
	"scriptbot/internal/storage"
)

const (
	auditTable = "audit"
	auditLimit = 20
)

// storeAudit keeps a short rolling history of interactions per guild. The
// history is a debugging aid, not a compliance log, so only the newest
// records are retained.
type storeAudit struct {
	mu    sync.Mutex
	store *storage.Storage
}

func (a *storeAudit) LogInteraction(rec script.AuditRecord) {
	log.Printf("[INFO] %s used %s in guild %s: %s %s",
		rec.Username, rec.Script, rec.GuildID, rec.Command, rec.Params)

	a.mu.Lock()
	defer a.mu.Unlock()

	var history []script.AuditRecord
	if _, err := a.store.GetJSON(auditTable, rec.GuildID, &history); err != nil {
		log.Printf("[WARN] Failed to load audit history for guild %s: %v", rec.GuildID, err)
		return
	}

	history = append(history, rec)
	if len(history) > auditLimit {
		history = history[len(history)-auditLimit:]
	}

	if err := a.store.SetJSON(auditTable, rec.GuildID, history); err != nil {
		log.Printf("[WARN] Failed to save audit history for guild %s: %v", rec.GuildID, err)
	}
}
