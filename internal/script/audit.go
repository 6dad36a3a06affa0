package script

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// AuditRecord is one interaction-audit line: who ran what, where, when.
type AuditRecord struct {
	ID        string    `json:"id"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Script    string    `json:"script"`
	Command   string    `json:"command"`
	Params    string    `json:"params"`
	Datetime  time.Time `json:"datetime"`
}

// AuditLogger receives one record per matched interactive event, regardless
// of whether the handler afterwards succeeds.
type AuditLogger interface {
	LogInteraction(rec AuditRecord)
}

func (s *Script) logAudit(i *discordgo.InteractionCreate, command, params string) {
	if s.audit == nil {
		return
	}
	user := interactionUser(i)
	rec := AuditRecord{
		ID:        uuid.NewString(),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Script:    s.name,
		Command:   command,
		Params:    params,
		Datetime:  time.Now(),
	}
	if user != nil {
		rec.UserID = user.ID
		rec.Username = user.Username
	}
	s.audit.LogInteraction(rec)
}

// interactionUser resolves the invoking user for both guild and DM events.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
