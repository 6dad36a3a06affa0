package script

import (
	"scriptbot/internal/storage"

	"github.com/bwmarrin/discordgo"
)

// Contexts are what the engine hands a handler when executing it.

// SlashContext is passed to slash command handlers.
type SlashContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Store   *storage.Storage
}

// ContextMenuContext is passed to message context-menu handlers.
type ContextMenuContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Store   *storage.Storage
	Target  *discordgo.Message
}

// ComponentContext is passed to button and select-menu handlers.
type ComponentContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Store   *storage.Storage
}

// CustomID returns the component custom id of the event.
func (c *ComponentContext) CustomID() string {
	return c.Event.MessageComponentData().CustomID
}

// Values returns the chosen values of a select-menu event.
func (c *ComponentContext) Values() []string {
	return c.Event.MessageComponentData().Values
}

// ModalContext is passed to modal submission handlers.
type ModalContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Store   *storage.Storage
}

// TextInput extracts a submitted text-input value by custom id.
func (c *ModalContext) TextInput(customID string) string {
	for _, row := range c.Event.ModalSubmitData().Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}

// MessageContext is passed to plain-message handlers.
type MessageContext struct {
	Session *discordgo.Session
	Event   *discordgo.MessageCreate
	Store   *storage.Storage
}

// ReactionContext is passed to reaction handlers. Removed reports whether
// the reaction was taken away rather than added.
type ReactionContext struct {
	Session  *discordgo.Session
	Reaction *discordgo.MessageReaction
	Removed  bool
	Store    *storage.Storage
}

// ScheduledEventKind tells a scheduled-event handler what changed.
type ScheduledEventKind int

const (
	ScheduledEventCreated ScheduledEventKind = iota
	ScheduledEventUpdated
	ScheduledEventDeleted
	ScheduledEventUserAdded
	ScheduledEventUserRemoved
)

// ScheduledEventContext is passed to scheduled-event handlers. Event is nil
// for user add/remove changes, which only carry ids.
type ScheduledEventContext struct {
	Session *discordgo.Session
	Store   *storage.Storage
	Kind    ScheduledEventKind
	GuildID string
	EventID string
	UserID  string
	Event   *discordgo.GuildScheduledEvent
}

// StartContext is passed to start handlers once the session is ready.
type StartContext struct {
	Session *discordgo.Session
	Store   *storage.Storage
}

// UpdateContext is passed to update handlers on a reconfigure trigger.
type UpdateContext struct {
	Session *discordgo.Session
	Store   *storage.Storage
	GuildID string
}
