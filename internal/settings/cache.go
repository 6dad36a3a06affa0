package settings

import (
	"sync"

	"scriptbot/internal/storage"
)

// Cache keeps per-guild settings in memory so dispatch paths do not hit the
// store on every event. It is owned by the dispatch engine and reloaded
// through Refresh when an admin changes a field.
type Cache struct {
	db      *storage.Storage
	mu      sync.RWMutex
	byGuild map[string]GuildSettings
}

func NewCache(db *storage.Storage) *Cache {
	return &Cache{
		db:      db,
		byGuild: make(map[string]GuildSettings),
	}
}

// Get returns a guild's settings, loading them on first access.
func (c *Cache) Get(guildID string) (GuildSettings, error) {
	c.mu.RLock()
	gs, ok := c.byGuild[guildID]
	c.mu.RUnlock()
	if ok {
		return gs, nil
	}
	return c.Refresh(guildID)
}

// Refresh reloads a guild's settings from the store.
func (c *Cache) Refresh(guildID string) (GuildSettings, error) {
	gs, err := Get(c.db, guildID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.byGuild[guildID] = gs
	c.mu.Unlock()
	return gs, nil
}
