// Package ping provides the liveness slash command.
package ping

import (
	"fmt"

	"scriptbot/internal/reply"
	"scriptbot/internal/script"

	"github.com/bwmarrin/discordgo"
)

func New() *script.Script {
	return script.New("ping", "info").
		AddSlashHandler(script.SlashHandler{
			Deploy: &discordgo.ApplicationCommand{
				Name:        "ping",
				Description: "Check bot latency",
			},
			Run: func(ctx *script.SlashContext) error {
				latency := ctx.Session.HeartbeatLatency().Milliseconds()
				return reply.RespondEphemeral(ctx.Session, ctx.Event, fmt.Sprintf("Pong! `%dms`", latency))
			},
		}).
		SetupScope(true, script.GlobalScope(), nil)
}
