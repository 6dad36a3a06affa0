// Package chat answers plain messages that mention the bot, streaming the
// model's reply into repeated message edits. When a guild configured a
// webhook link the reply is posted under the webhook identity instead of
// the bot user.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"scriptbot/internal/ai"
	"scriptbot/internal/reply"
	"scriptbot/internal/script"
	"scriptbot/internal/settings"

	"github.com/bwmarrin/discordgo"
)

const (
	streamChunkRunes = 120
	streamMinPeriod  = 1500 * time.Millisecond
)

type chatScript struct {
	client *ai.Client
	cache  *settings.Cache
}

func New(client *ai.Client, cache *settings.Cache) *script.Script {
	c := &chatScript{client: client, cache: cache}

	return script.New("chat", "gpt").
		AddMessageHandler(script.MessageHandler{
			Run: c.runMessage,
		}).
		SetupScope(true, script.GlobalScope(), nil)
}

// wantsReply reports whether the message addresses the bot: an explicit
// mention anywhere, or any message inside the guild's dedicated GPT channel.
func (c *chatScript) wantsReply(ctx *script.MessageContext, gs settings.GuildSettings) bool {
	if ctx.Session.State != nil && ctx.Session.State.User != nil {
		me := ctx.Session.State.User.ID
		for _, u := range ctx.Event.Mentions {
			if u.ID == me {
				return true
			}
		}
	}
	gptChannel := gs.Field(settings.FieldGPTChannelID)
	return gptChannel != "" && ctx.Event.ChannelID == gptChannel
}

func (c *chatScript) runMessage(ctx *script.MessageContext) error {
	if ctx.Event.Author == nil || ctx.Event.Author.Bot {
		return nil
	}

	gs, err := c.cache.Get(ctx.Event.GuildID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !c.wantsReply(ctx, gs) {
		return nil
	}

	prompt := stripMention(ctx.Session, ctx.Event.Content)
	if prompt == "" {
		return nil
	}

	history := []ai.Message{{Role: "user", Content: prompt}}

	if link := gs.Field(settings.FieldMainWebhookLink); link != "" {
		return c.streamViaWebhook(ctx, link, history)
	}
	return c.streamAsBot(ctx, history)
}

func stripMention(s *discordgo.Session, content string) string {
	if s.State != nil && s.State.User != nil {
		me := s.State.User.ID
		content = strings.ReplaceAll(content, "<@"+me+">", "")
		content = strings.ReplaceAll(content, "<@!"+me+">", "")
	}
	return strings.TrimSpace(content)
}

func (c *chatScript) streamAsBot(ctx *script.MessageContext, history []ai.Message) error {
	msg, err := ctx.Session.ChannelMessageSendReply(ctx.Event.ChannelID, "⏳", ctx.Event.Reference())
	if err != nil {
		return fmt.Errorf("start reply: %w", err)
	}

	streamErr := c.client.RequestStream(context.Background(), history, streamChunkRunes, streamMinPeriod,
		func(partial string) error {
			_, err := ctx.Session.ChannelMessageEdit(ctx.Event.ChannelID, msg.ID, partial)
			return err
		})
	if streamErr != nil {
		log.Printf("[WARN] Chat stream aborted: %v", streamErr)
		_, _ = ctx.Session.ChannelMessageEdit(ctx.Event.ChannelID, msg.ID, "Error: the model is unavailable right now.")
	}
	return nil
}

func (c *chatScript) streamViaWebhook(ctx *script.MessageContext, link string, history []ai.Message) error {
	name := "Assistant"
	avatar := ""
	if ctx.Session.State != nil && ctx.Session.State.User != nil {
		name = ctx.Session.State.User.Username
		avatar = ctx.Session.State.User.AvatarURL("")
	}

	msg, err := reply.SendViaWebhook(ctx.Session, link, name, avatar, "⏳")
	if err != nil {
		return fmt.Errorf("start webhook reply: %w", err)
	}

	streamErr := c.client.RequestStream(context.Background(), history, streamChunkRunes, streamMinPeriod,
		func(partial string) error {
			return reply.EditWebhookMessage(ctx.Session, link, msg.ID, partial)
		})
	if streamErr != nil {
		log.Printf("[WARN] Chat webhook stream aborted: %v", streamErr)
		_ = reply.EditWebhookMessage(ctx.Session, link, msg.ID, "Error: the model is unavailable right now.")
	}
	return nil
}
