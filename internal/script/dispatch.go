package script

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Wrapped handler accessors. Each one, in order: checks the event matches
// this script's predicate, applies the scope/enable filter (silent skip),
// emits the interaction-audit line, verifies the script is set up, and only
// then invokes the user callback. The bool return reports whether the event
// was claimed by this script.

func (s *Script) HandleSlash(ctx *SlashContext) (bool, error) {
	h, ok := s.handlers[KindSlash].(*SlashHandler)
	if !ok {
		return false, nil
	}
	data := ctx.Event.ApplicationCommandData()
	if data.Name != s.name {
		return false, nil
	}
	if !s.eligible(ctx.Event.GuildID, interactionUserID(ctx.Event)) {
		return false, nil
	}
	s.logAudit(ctx.Event, "/"+s.name, optionString(data.Options))
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func (s *Script) HandleContextMenu(ctx *ContextMenuContext) (bool, error) {
	h, ok := s.handlers[KindContext].(*ContextHandler)
	if !ok {
		return false, nil
	}
	if ctx.Event.ApplicationCommandData().Name != s.name {
		return false, nil
	}
	if !s.eligible(ctx.Event.GuildID, interactionUserID(ctx.Event)) {
		return false, nil
	}
	s.logAudit(ctx.Event, s.name, "")
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func (s *Script) HandleButton(ctx *ComponentContext) (bool, error) {
	h, ok := s.handlers[KindButton].(*ButtonHandler)
	if !ok {
		return false, nil
	}
	customID := ctx.CustomID()
	if !h.Match(customID) {
		return false, nil
	}
	if !s.eligible(ctx.Event.GuildID, interactionUserID(ctx.Event)) {
		return false, nil
	}
	s.logAudit(ctx.Event, customID, "")
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func (s *Script) HandleSelectMenu(ctx *ComponentContext) (bool, error) {
	h, ok := s.handlers[KindSelectMenu].(*SelectMenuHandler)
	if !ok {
		return false, nil
	}
	customID := ctx.CustomID()
	if !h.Match(customID) {
		return false, nil
	}
	if !s.eligible(ctx.Event.GuildID, interactionUserID(ctx.Event)) {
		return false, nil
	}
	s.logAudit(ctx.Event, customID, strings.Join(ctx.Values(), ","))
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func (s *Script) HandleModal(ctx *ModalContext) (bool, error) {
	h, ok := s.handlers[KindModal].(*ModalHandler)
	if !ok {
		return false, nil
	}
	modalID := ctx.Event.ModalSubmitData().CustomID
	if !h.Match(modalID) {
		return false, nil
	}
	if !s.eligible(ctx.Event.GuildID, interactionUserID(ctx.Event)) {
		return false, nil
	}
	s.logAudit(ctx.Event, modalID, "")
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func (s *Script) HandleMessage(ctx *MessageContext) (bool, error) {
	h, ok := s.handlers[KindMessage].(*MessageHandler)
	if !ok {
		return false, nil
	}
	if !s.eligible(ctx.Event.GuildID, ctx.Event.Author.ID) {
		return false, nil
	}
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func (s *Script) HandleReaction(ctx *ReactionContext) (bool, error) {
	h, ok := s.handlers[KindReaction].(*ReactionHandler)
	if !ok {
		return false, nil
	}
	if !s.eligible(ctx.Reaction.GuildID, ctx.Reaction.UserID) {
		return false, nil
	}
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func (s *Script) HandleScheduledEvent(ctx *ScheduledEventContext) (bool, error) {
	h, ok := s.handlers[KindScheduledEvent].(*ScheduledEventHandler)
	if !ok {
		return false, nil
	}
	if !s.eligible(ctx.GuildID, ctx.UserID) {
		return false, nil
	}
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func (s *Script) HandleStart(ctx *StartContext) (bool, error) {
	h, ok := s.handlers[KindStart].(*StartHandler)
	if !ok {
		return false, nil
	}
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func (s *Script) HandleUpdate(ctx *UpdateContext) (bool, error) {
	h, ok := s.handlers[KindUpdate].(*UpdateHandler)
	if !ok {
		return false, nil
	}
	if ctx.GuildID != "" && !s.eligible(ctx.GuildID, "") {
		return false, nil
	}
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	return true, h.Run(ctx)
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if user := interactionUser(i); user != nil {
		return user.ID
	}
	return ""
}

// optionString flattens slash options into an audit-friendly string.
func optionString(opts []*discordgo.ApplicationCommandInteractionDataOption) string {
	var parts []string
	for _, opt := range opts {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			nested := optionString(opt.Options)
			if nested != "" {
				parts = append(parts, opt.Name+"("+nested+")")
			} else {
				parts = append(parts, opt.Name)
			}
		case discordgo.ApplicationCommandOptionString:
			parts = append(parts, opt.Name+"="+opt.StringValue())
		default:
			parts = append(parts, opt.Name)
		}
	}
	return strings.Join(parts, " ")
}
