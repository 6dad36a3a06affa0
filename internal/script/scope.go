package script

// Scope is the set of guilds a script's handlers are eligible to run in.
type Scope struct {
	global bool
	guilds map[string]struct{}
}

// GlobalScope makes a script eligible everywhere.
func GlobalScope() Scope {
	return Scope{global: true}
}

// GuildScope restricts a script to the listed guilds.
func GuildScope(guildIDs ...string) Scope {
	set := make(map[string]struct{}, len(guildIDs))
	for _, id := range guildIDs {
		set[id] = struct{}{}
	}
	return Scope{guilds: set}
}

func (sc Scope) Global() bool { return sc.global }

// GuildIDs returns the explicit guild targets (empty for a global scope).
func (sc Scope) GuildIDs() []string {
	ids := make([]string, 0, len(sc.guilds))
	for id := range sc.guilds {
		ids = append(ids, id)
	}
	return ids
}

func (sc Scope) Allows(guildID string) bool {
	if sc.global {
		return true
	}
	_, ok := sc.guilds[guildID]
	return ok
}

// UserFilter optionally narrows a scope to (or away from) specific users.
// An empty whitelist allows everyone not blacklisted.
type UserFilter struct {
	Whitelist []string
	Blacklist []string
}

func (f *UserFilter) allows(userID string) bool {
	if f == nil {
		return true
	}
	for _, id := range f.Blacklist {
		if id == userID {
			return false
		}
	}
	if len(f.Whitelist) == 0 {
		return true
	}
	for _, id := range f.Whitelist {
		if id == userID {
			return true
		}
	}
	return false
}
