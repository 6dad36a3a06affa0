// Package schedule exposes guild scheduled events as a paginated day view
// and posts change notices to the configured schedule channel.
package schedule

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"scriptbot/internal/pager"
	"scriptbot/internal/reply"
	"scriptbot/internal/script"
	"scriptbot/internal/settings"
	"scriptbot/internal/storage"

	"github.com/bwmarrin/discordgo"
)

const maxEventsPerDay = 10

type scheduleScript struct {
	db    *storage.Storage
	store *pager.Store
}

func New(db *storage.Storage) *script.Script {
	sc := &scheduleScript{db: db, store: pager.NewStore(db)}

	return script.New("schedule", "events").
		AddSlashHandler(script.SlashHandler{
			Deploy: &discordgo.ApplicationCommand{
				Name:        "schedule",
				Description: "Browse upcoming server events day by day",
			},
			Run: sc.runSlash,
		}).
		AddButtonHandler(script.ButtonHandler{
			Match: sc.matchButton,
			Run:   sc.runButton,
		}).
		AddScheduledEventHandler(script.ScheduledEventHandler{
			Run: sc.runChange,
		}).
		SetupScope(true, script.GlobalScope(), nil)
}

func (sc *scheduleScript) responder(s *discordgo.Session) *pager.Responder {
	return pager.NewResponder(sc.store, reply.SessionEditor{Session: s}, "schedule")
}

// dayAnswers renders upcoming events grouped per day, one pagination answer
// per day, soonest first.
func dayAnswers(events []*discordgo.GuildScheduledEvent) []pager.Answer {
	byDay := make(map[string][]*discordgo.GuildScheduledEvent)
	var days []string
	for _, ev := range events {
		day := ev.ScheduledStartTime.Format("2006-01-02")
		if _, seen := byDay[day]; !seen {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], ev)
	}
	sort.Strings(days)

	var answers []pager.Answer
	for _, day := range days {
		evs := byDay[day]
		sort.Slice(evs, func(i, j int) bool {
			return evs[i].ScheduledStartTime.Before(evs[j].ScheduledStartTime)
		})

		var b strings.Builder
		date, _ := time.Parse("2006-01-02", day)
		fmt.Fprintf(&b, "📅 **%s**\n\n", date.Format("Monday, 02 Jan 2006"))
		for i, ev := range evs {
			if i >= maxEventsPerDay {
				fmt.Fprintf(&b, "… and %d more\n", len(evs)-maxEventsPerDay)
				break
			}
			fmt.Fprintf(&b, "**%s** — <t:%d:t>\n", ev.Name, ev.ScheduledStartTime.Unix())
			if ev.Description != "" {
				desc := ev.Description
				if runes := []rune(desc); len(runes) > 140 {
					desc = string(runes[:140]) + "…"
				}
				fmt.Fprintf(&b, "%s\n", desc)
			}
		}
		answers = append(answers, pager.Answer{Content: b.String()})
	}
	return answers
}

func (sc *scheduleScript) runSlash(ctx *script.SlashContext) error {
	if err := reply.Defer(ctx.Session, ctx.Event); err != nil {
		return err
	}

	events, err := ctx.Session.GuildScheduledEvents(ctx.Event.GuildID, false)
	if err != nil {
		_, _ = reply.EditResponse(ctx.Session, ctx.Event, "Error: could not load scheduled events.")
		return fmt.Errorf("load scheduled events: %w", err)
	}

	answers := dayAnswers(events)
	if len(answers) == 0 {
		_, err := reply.EditResponse(ctx.Session, ctx.Event, "No upcoming events.")
		return err
	}

	msg, err := reply.EditResponse(ctx.Session, ctx.Event, answers[0].Content)
	if err != nil {
		return fmt.Errorf("publish day view: %w", err)
	}

	if _, err := sc.store.Create(msg.ID, answers[0]); err != nil {
		return err
	}
	for _, ans := range answers[1:] {
		if _, err := sc.store.Append(msg.ID, ans); err != nil {
			return err
		}
	}
	// Appending leaves the record on the newest answer; walk back to today.
	if len(answers) > 1 {
		if _, err := sc.store.Navigate(msg.ID, -(len(answers) - 1)); err != nil {
			return err
		}
	}

	return sc.responder(ctx.Session).Render(msg.ChannelID, msg.ID)
}

func (sc *scheduleScript) matchButton(customID string) bool {
	_, ok := sc.responder(nil).ParseOp(customID)
	return ok
}

func (sc *scheduleScript) runButton(ctx *script.ComponentContext) error {
	msgID := ctx.Event.Message.ID
	channelID := ctx.Event.ChannelID
	resp := sc.responder(ctx.Session)

	op, _ := resp.ParseOp(ctx.CustomID())
	if err := reply.DeferUpdate(ctx.Session, ctx.Event); err != nil {
		return err
	}

	switch op {
	case pager.OpPrev:
		if _, err := sc.store.Navigate(msgID, -1); err != nil {
			return err
		}
		return resp.Render(channelID, msgID)

	case pager.OpNext:
		if _, err := sc.store.Navigate(msgID, +1); err != nil {
			return err
		}
		return resp.Render(channelID, msgID)

	case pager.OpCancel:
		return resp.Discard(channelID, msgID)

	case pager.OpRegen:
		return sc.refresh(ctx, channelID, msgID)

	default:
		return nil
	}
}

// refresh appends a freshly fetched day view so stale pages stay browsable.
func (sc *scheduleScript) refresh(ctx *script.ComponentContext, channelID, msgID string) error {
	resp := sc.responder(ctx.Session)
	if err := resp.ShowLoading(channelID, msgID); err != nil {
		return err
	}

	events, err := ctx.Session.GuildScheduledEvents(ctx.Event.GuildID, false)
	if err != nil {
		return fmt.Errorf("reload scheduled events: %w", err)
	}

	answers := dayAnswers(events)
	content := "No upcoming events."
	if len(answers) > 0 {
		content = answers[0].Content
	}
	if _, err := sc.store.Append(msgID, pager.Answer{Content: content}); err != nil {
		return err
	}
	return resp.Render(channelID, msgID)
}

var changeTitles = map[script.ScheduledEventKind]string{
	script.ScheduledEventCreated:     "New event scheduled",
	script.ScheduledEventUpdated:     "Event updated",
	script.ScheduledEventDeleted:     "Event cancelled",
	script.ScheduledEventUserAdded:   "Someone is going",
	script.ScheduledEventUserRemoved: "Someone dropped out",
}

// runChange posts a notice about a scheduled-event change to the guild's
// schedule channel. An unconfigured channel is a remediation case, not an
// error: it is logged and the notice is skipped.
func (sc *scheduleScript) runChange(ctx *script.ScheduledEventContext) error {
	gs, remediation, err := settings.Require(sc.db, ctx.GuildID, settings.FieldScheduleChannelID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if remediation != "" {
		log.Printf("[WARN] Skipping schedule notice for guild %s: %s", ctx.GuildID, remediation)
		return nil
	}
	channelID := gs.Field(settings.FieldScheduleChannelID)

	title := changeTitles[ctx.Kind]
	if title == "" {
		title = "Event changed"
	}

	var lines []string
	if ctx.Event != nil {
		lines = append(lines, fmt.Sprintf("**%s**", ctx.Event.Name))
		if !ctx.Event.ScheduledStartTime.IsZero() {
			lines = append(lines, fmt.Sprintf("<t:%d:F>", ctx.Event.ScheduledStartTime.Unix()))
		}
	}
	if ctx.UserID != "" {
		lines = append(lines, fmt.Sprintf("<@%s>", ctx.UserID))
	}

	return reply.MessageEmbed(ctx.Session, channelID, &discordgo.MessageEmbed{
		Title:       title,
		Description: strings.Join(lines, "\n"),
	})
}
