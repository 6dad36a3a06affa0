package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func event(name string, start time.Time) *discordgo.GuildScheduledEvent {
	return &discordgo.GuildScheduledEvent{
		Name:               name,
		ScheduledStartTime: start,
	}
}

func TestDayAnswersGroupsByDay(t *testing.T) {
	monday := time.Date(2026, 9, 7, 18, 0, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)

	answers := dayAnswers([]*discordgo.GuildScheduledEvent{
		event("movie night", monday.Add(2*time.Hour)),
		event("standup", monday),
		event("raid", tuesday),
	})

	if len(answers) != 2 {
		t.Fatalf("expected 2 day pages, got %d", len(answers))
	}
	first := answers[0].Content
	if !strings.Contains(first, "standup") || !strings.Contains(first, "movie night") {
		t.Fatalf("expected both Monday events on page one, got %q", first)
	}
	// Same-day events are ordered by start time.
	if strings.Index(first, "standup") > strings.Index(first, "movie night") {
		t.Fatalf("expected standup before movie night, got %q", first)
	}
	if !strings.Contains(answers[1].Content, "raid") {
		t.Fatalf("expected Tuesday event on page two, got %q", answers[1].Content)
	}
}

func TestDayAnswersEmpty(t *testing.T) {
	if answers := dayAnswers(nil); len(answers) != 0 {
		t.Fatalf("expected no pages, got %d", len(answers))
	}
}

func TestDayAnswersTruncatesLongDescriptions(t *testing.T) {
	ev := event("marathon", time.Date(2026, 9, 7, 18, 0, 0, 0, time.UTC))
	ev.Description = strings.Repeat("x", 300)

	answers := dayAnswers([]*discordgo.GuildScheduledEvent{ev})
	if len(answers) != 1 {
		t.Fatalf("expected 1 page, got %d", len(answers))
	}
	if !strings.Contains(answers[0].Content, "…") {
		t.Fatalf("expected truncated description, got %q", answers[0].Content)
	}
	if strings.Contains(answers[0].Content, strings.Repeat("x", 200)) {
		t.Fatalf("description was not truncated: %q", answers[0].Content)
	}
}
