// Package settings provides the admin command for inspecting and changing
// per-guild configuration.
package settings

import (
	"fmt"
	"strings"

	"scriptbot/internal/reply"
	"scriptbot/internal/script"
	guildset "scriptbot/internal/settings"

	"github.com/bwmarrin/discordgo"
)

// New builds the /settings script. notify is called after a successful
// change so the owner of the settings cache can refresh it. developerID,
// when set, names the bot operator, who may manage settings in any guild
// without holding the administrator permission there.
func New(notify func(guildID string), developerID string) *script.Script {
	fieldChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(guildset.Fields))
	for _, f := range guildset.Fields {
		fieldChoices = append(fieldChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  f,
			Value: f,
		})
	}

	return script.New("settings", "admin").
		AddSlashHandler(script.SlashHandler{
			Deploy: &discordgo.ApplicationCommand{
				Name:        "settings",
				Description: "Inspect or change bot settings for this server",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "show",
						Description: "Show the current settings",
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "set",
						Description: "Set one settings field",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Type:        discordgo.ApplicationCommandOptionString,
								Name:        "field",
								Description: "Field to change",
								Required:    true,
								Choices:     fieldChoices,
							},
							{
								Type:        discordgo.ApplicationCommandOptionString,
								Name:        "value",
								Description: "New value (empty to clear)",
								Required:    false,
							},
						},
					},
				},
			},
			Run: func(ctx *script.SlashContext) error {
				if !canManage(ctx.Session, ctx.Event.GuildID, ctx.Event.Member, developerID) {
					return reply.RespondEphemeral(ctx.Session, ctx.Event, "You need the Administrator permission to manage settings.")
				}

				sub := ctx.Event.ApplicationCommandData().Options[0]
				switch sub.Name {
				case "show":
					return runShow(ctx)
				case "set":
					return runSet(ctx, sub, notify)
				default:
					return fmt.Errorf("unknown settings subcommand %q", sub.Name)
				}
			},
		}).
		SetupScope(true, script.GlobalScope(), nil)
}

// canManage allows guild administrators plus the configured bot operator.
func canManage(s *discordgo.Session, guildID string, member *discordgo.Member, developerID string) bool {
	if developerID != "" && member != nil && member.User != nil && member.User.ID == developerID {
		return true
	}
	return reply.IsAdministrator(s, guildID, member)
}

func runShow(ctx *script.SlashContext) error {
	gs, err := guildset.Get(ctx.Store, ctx.Event.GuildID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	var b strings.Builder
	for _, f := range guildset.Fields {
		value := gs.Field(f)
		if value == "" {
			value = "_(unset)_"
		}
		fmt.Fprintf(&b, "`%s` %s\n", f, value)
	}

	return reply.RespondEmbedEphemeral(ctx.Session, ctx.Event, &discordgo.MessageEmbed{
		Title:       "Server settings",
		Description: b.String(),
		Color:       reply.EmbedColor,
	})
}

func runSet(ctx *script.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption, notify func(string)) error {
	var field, value string
	for _, opt := range sub.Options {
		switch opt.Name {
		case "field":
			field = opt.StringValue()
		case "value":
			value = opt.StringValue()
		}
	}

	if err := guildset.Set(ctx.Store, ctx.Event.GuildID, field, value); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if notify != nil {
		notify(ctx.Event.GuildID)
	}

	if value == "" {
		return reply.RespondEphemeral(ctx.Session, ctx.Event, fmt.Sprintf("Cleared `%s`.", field))
	}
	return reply.RespondEphemeral(ctx.Session, ctx.Event, fmt.Sprintf("Set `%s` to %s.", field, value))
}
