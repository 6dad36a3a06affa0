package dispatch

import (
	"context"
	"fmt"
	"log"

	"scriptbot/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
)

// Deploy overwrites the guild's command set with every payload the
// registered scripts declared for it, global payloads included. Bulk
// overwrite keeps Discord's view consistent with the registry: commands
// removed from the code disappear from the guild on the next deploy.
func (e *Engine) Deploy(guildID string) error {
	defs := append([]*discordgo.ApplicationCommand{}, e.deploys[""]...)
	defs = append(defs, e.deploys[guildID]...)

	if len(defs) == 0 {
		return nil
	}

	err := retrylimit.WithRetryMax(context.Background(), func() error {
		_, err := e.session.ApplicationCommandBulkOverwrite(e.session.State.User.ID, guildID, defs)
		return err
	}, e.deployLimiter, 3)
	if err != nil {
		return fmt.Errorf("deploy commands for guild %s: %w", guildID, err)
	}

	log.Printf("[DONE] Deployed %d commands to guild %s", len(defs), guildID)
	return nil
}
