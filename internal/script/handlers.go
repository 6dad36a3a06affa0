package script

import "github.com/bwmarrin/discordgo"

// Handler declarations. Interactive handlers carry a predicate (deploy name
// or custom-id matcher) the engine uses to decide applicability, decoupled
// from execution.

type SlashHandler struct {
	Deploy *discordgo.ApplicationCommand
	Run    func(*SlashContext) error
}

type ContextHandler struct {
	Deploy *discordgo.ApplicationCommand
	Run    func(*ContextMenuContext) error
}

type ButtonHandler struct {
	Match func(customID string) bool
	Run   func(*ComponentContext) error
}

type SelectMenuHandler struct {
	Match func(customID string) bool
	Run   func(*ComponentContext) error
}

type ModalHandler struct {
	Match func(modalID string) bool
	Run   func(*ModalContext) error
}

type MessageHandler struct {
	Run func(*MessageContext) error
}

type ReactionHandler struct {
	Run func(*ReactionContext) error
}

type ScheduledEventHandler struct {
	Run func(*ScheduledEventContext) error
}

type StartHandler struct {
	Run func(*StartContext) error
}

type UpdateHandler struct {
	Run func(*UpdateContext) error
}
