// Package speak provides text-to-speech via the configured external
// synthesizer command.
package speak

import (
	"bytes"
	"context"
	"fmt"

	"scriptbot/internal/reply"
	"scriptbot/internal/script"
	"scriptbot/internal/tts"

	"github.com/bwmarrin/discordgo"
)

const maxInputRunes = 500

func New(synth *tts.Synth) *script.Script {
	return script.New("speak", "fun").
		AddSlashHandler(script.SlashHandler{
			Deploy: &discordgo.ApplicationCommand{
				Name:        "speak",
				Description: "Turn text into an audio clip",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "text",
						Description: "Text to synthesize",
						Required:    true,
					},
				},
			},
			Run: func(ctx *script.SlashContext) error {
				if !synth.Configured() {
					return reply.RespondEphemeral(ctx.Session, ctx.Event, "Text-to-speech is not configured on this bot.")
				}

				text := ctx.Event.ApplicationCommandData().Options[0].StringValue()
				if runes := []rune(text); len(runes) > maxInputRunes {
					text = string(runes[:maxInputRunes])
				}

				if err := reply.Defer(ctx.Session, ctx.Event); err != nil {
					return err
				}

				audio, err := synth.Send(context.Background(), text)
				if err != nil {
					_ = reply.FollowupEphemeral(ctx.Session, ctx.Event, "Synthesis failed, try again later.")
					return fmt.Errorf("synthesize: %w", err)
				}

				return reply.FollowupFile(ctx.Session, ctx.Event, "", "speech.mp3", bytes.NewReader(audio))
			},
		}).
		SetupScope(true, script.GlobalScope(), nil)
}
