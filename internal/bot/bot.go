// Package bot owns the gateway session: it wires Discord events into the
// dispatch engine and handles guild lifecycle concerns like the blacklist
// and command deployment.
package bot

import (
	"context"
	"fmt"
	"log"
	"slices"

	"scriptbot/internal/config"
	"scriptbot/internal/dispatch"
	"scriptbot/internal/script"
	"scriptbot/internal/version"

	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	dg     *discordgo.Session
	cfg    *config.Config
	engine *dispatch.Engine
}

func New(dg *discordgo.Session, cfg *config.Config, engine *dispatch.Engine) *Bot {
	return &Bot{dg: dg, cfg: cfg, engine: engine}
}

// Run opens the gateway and blocks until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.Identify.Intents = discordgo.IntentsAll

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.engine.HandleInteraction)
	b.dg.AddHandler(b.engine.HandleMessage)
	b.dg.AddHandler(b.onMessageReactionAdd)
	b.dg.AddHandler(b.onMessageReactionRemove)
	b.dg.AddHandler(b.onScheduledEventCreate)
	b.dg.AddHandler(b.onScheduledEventUpdate)
	b.dg.AddHandler(b.onScheduledEventDelete)
	b.dg.AddHandler(b.onScheduledEventUserAdd)
	b.dg.AddHandler(b.onScheduledEventUserRemove)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	go b.engine.Run(ctx)

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) isGuildBlacklisted(guildID string) bool {
	return slices.Contains(b.cfg.DiscordGuildBlacklist, guildID)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if b.isGuildBlacklisted(g.ID) {
			log.Printf("[INFO] Leaving blacklisted guild: %s (%s)", g.ID, g.Name)
			if err := s.GuildLeave(g.ID); err != nil {
				log.Printf("[ERR] Failed to leave guild %s: %v", g.ID, err)
			}
			continue
		}

		if b.cfg.DeployCommands {
			if err := b.engine.Deploy(g.ID); err != nil {
				log.Printf("[ERR] Error deploying commands for guild %s: %v", g.ID, err)
			}
		} else {
			log.Println("[INFO] Command deployment skipped")
		}
	}

	b.engine.HandleReady(s)

	log.Printf("[INFO] ✅ %v is running as %v.", version.AppName, s.State.User.Username)
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Bot added to guild: %s (%s)", g.Guild.ID, g.Guild.Name)

	if b.isGuildBlacklisted(g.Guild.ID) {
		log.Printf("[INFO] Leaving blacklisted guild: %s (%s)", g.Guild.ID, g.Guild.Name)
		if err := s.GuildLeave(g.Guild.ID); err != nil {
			log.Printf("[ERR] Failed to leave guild %s: %v", g.Guild.ID, err)
		}
		return
	}

	if b.cfg.DeployCommands {
		if err := b.engine.Deploy(g.Guild.ID); err != nil {
			log.Printf("[ERR] Failed to deploy commands for new guild %s: %v", g.Guild.ID, err)
		}
	}
}

func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.engine.HandleReaction(s, r.MessageReaction, false)
}

func (b *Bot) onMessageReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	b.engine.HandleReaction(s, r.MessageReaction, true)
}

func (b *Bot) onScheduledEventCreate(s *discordgo.Session, e *discordgo.GuildScheduledEventCreate) {
	b.engine.HandleScheduledEvent(s, &script.ScheduledEventContext{
		Kind:    script.ScheduledEventCreated,
		GuildID: e.GuildID,
		EventID: e.ID,
		Event:   e.GuildScheduledEvent,
	})
}

func (b *Bot) onScheduledEventUpdate(s *discordgo.Session, e *discordgo.GuildScheduledEventUpdate) {
	b.engine.HandleScheduledEvent(s, &script.ScheduledEventContext{
		Kind:    script.ScheduledEventUpdated,
		GuildID: e.GuildID,
		EventID: e.ID,
		Event:   e.GuildScheduledEvent,
	})
}

func (b *Bot) onScheduledEventDelete(s *discordgo.Session, e *discordgo.GuildScheduledEventDelete) {
	b.engine.HandleScheduledEvent(s, &script.ScheduledEventContext{
		Kind:    script.ScheduledEventDeleted,
		GuildID: e.GuildID,
		EventID: e.ID,
		Event:   e.GuildScheduledEvent,
	})
}

func (b *Bot) onScheduledEventUserAdd(s *discordgo.Session, e *discordgo.GuildScheduledEventUserAdd) {
	b.engine.HandleScheduledEvent(s, &script.ScheduledEventContext{
		Kind:    script.ScheduledEventUserAdded,
		GuildID: e.GuildID,
		EventID: e.GuildScheduledEventID,
		UserID:  e.UserID,
	})
}

func (b *Bot) onScheduledEventUserRemove(s *discordgo.Session, e *discordgo.GuildScheduledEventUserRemove) {
	b.engine.HandleScheduledEvent(s, &script.ScheduledEventContext{
		Kind:    script.ScheduledEventUserRemoved,
		GuildID: e.GuildID,
		EventID: e.GuildScheduledEventID,
		UserID:  e.UserID,
	})
}
