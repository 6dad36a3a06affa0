// /internal/settings/settings.go
package settings

import (
	"fmt"
	"strings"

	"scriptbot/internal/storage"
)

const Table = "settings"

// Named text fields a guild can configure. Missing fields read as "".
const (
	FieldMainWebhookLink   = "mainWebhookLink"
	FieldNotifyChannelID   = "notifyChannelID"
	FieldGPTChannelID      = "gptChannelID"
	FieldLogChannelID      = "logChannelID"
	FieldScheduleChannelID = "scheduleChannelID"
)

// Fields lists every known field, in the order shown to admins.
var Fields = []string{
	FieldMainWebhookLink,
	FieldNotifyChannelID,
	FieldGPTChannelID,
	FieldLogChannelID,
	FieldScheduleChannelID,
}

func IsKnownField(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}

// GuildSettings holds one guild's configured fields.
type GuildSettings map[string]string

func (gs GuildSettings) Field(name string) string {
	if gs == nil {
		return ""
	}
	return gs[name]
}

// Get loads a guild's settings. A guild with no stored document gets an
// empty set, not an error.
func Get(db *storage.Storage, guildID string) (GuildSettings, error) {
	gs := GuildSettings{}
	if _, err := db.GetJSON(Table, guildID, &gs); err != nil {
		return nil, err
	}
	if gs == nil {
		gs = GuildSettings{}
	}
	return gs, nil
}

// Set writes one field read-modify-write style.
func Set(db *storage.Storage, guildID, field, value string) error {
	if !IsKnownField(field) {
		return fmt.Errorf("unknown settings field '%s'", field)
	}
	gs, err := Get(db, guildID)
	if err != nil {
		return err
	}
	gs[field] = value
	return db.SetJSON(Table, guildID, gs)
}

// Require loads settings and checks that each named field is non-empty.
// When something is missing it returns a human-readable remediation message
// naming the fields; that is a normal outcome for the caller to surface to
// the user, not an error.
func Require(db *storage.Storage, guildID string, fields ...string) (GuildSettings, string, error) {
	gs, err := Get(db, guildID)
	if err != nil {
		return nil, "", err
	}

	var missing []string
	for _, f := range fields {
		if gs.Field(f) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		msg := fmt.Sprintf(
			"This server is missing required settings: %s.\nAsk an admin to run `/settings set` for each field.",
			strings.Join(missing, ", "),
		)
		return gs, msg, nil
	}
	return gs, "", nil
}
