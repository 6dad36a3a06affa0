// Package dispatch owns the script registry and is the single entry point
// the gateway calls into. It routes typed events to every script whose
// handler kind and predicate match, applies nothing of its own beyond
// isolation: a handler failure is caught at the call site, logged, answered
// with an error embed, and never starves the other scripts of the event.
package dispatch

import (
	"fmt"
	"log"
	"sync"

	"scriptbot/internal/reply"
	"scriptbot/internal/script"
	"scriptbot/internal/settings"
	"scriptbot/internal/storage"
	"scriptbot/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
)

type Engine struct {
	session *discordgo.Session
	store   *storage.Storage
	cache   *settings.Cache

	scripts []*script.Script
	byKind  map[script.HandlerKind][]*script.Script
	// deploys maps guild id -> slash/context payloads; "" holds payloads of
	// globally scoped scripts, merged into every guild at deploy time.
	deploys map[string][]*discordgo.ApplicationCommand

	deployLimiter *retrylimit.AdaptiveLimiter

	events    chan SystemEvent
	startOnce sync.Once
}

// New builds an engine around explicitly owned collaborators. The settings
// cache is injected here, not reached through a package global, so tests
// and callers control its lifecycle.
func New(session *discordgo.Session, store *storage.Storage, cache *settings.Cache) *Engine {
	return &Engine{
		session:       session,
		store:         store,
		cache:         cache,
		byKind:        make(map[script.HandlerKind][]*script.Script),
		deploys:       make(map[string][]*discordgo.ApplicationCommand),
		deployLimiter: retrylimit.NewAdaptiveLimiter(10, 1, 40, 2, 0.5),
		events:        make(chan SystemEvent, 32),
	}
}

// Settings exposes the engine-owned settings cache to scripts.
func (e *Engine) Settings() *settings.Cache { return e.cache }

// Register binds and indexes scripts. Within one guild's command set a
// duplicate deploy name is a conflict: it is logged and the later
// registration's payload is dropped, so the first feature keeps the name
// instead of being silently overwritten.
func (e *Engine) Register(scripts ...*script.Script) {
	for _, s := range scripts {
		s.Bind(e.session, e.store, &storeAudit{store: e.store})
		e.scripts = append(e.scripts, s)

		for kind := script.KindSlash; kind <= script.KindUpdate; kind++ {
			if s.Has(kind) {
				e.byKind[kind] = append(e.byKind[kind], s)
			}
		}

		e.indexDeploys(s)
		log.Printf("[INFO] Registered script %q (group %q)", s.Name(), s.Group())
	}
}

func (e *Engine) indexDeploys(s *script.Script) {
	defs := s.DeployData()
	if len(defs) == 0 {
		return
	}

	targets := []string{""}
	if !s.Scope().Global() {
		targets = s.Scope().GuildIDs()
	}

	for _, guildID := range targets {
		for _, def := range defs {
			if holder := e.deployNameTaken(guildID, def.Name); holder != "" {
				log.Printf("[WARN] Command name conflict: %q already deployed for guild %q, dropping later registration from script %q",
					def.Name, guildID, s.Name())
				continue
			}
			e.deploys[guildID] = append(e.deploys[guildID], def)
		}
	}
}

// deployNameTaken checks the guild's effective command set, which includes
// the global payloads.
func (e *Engine) deployNameTaken(guildID, name string) string {
	check := func(defs []*discordgo.ApplicationCommand) string {
		for _, def := range defs {
			if def.Name == name {
				return def.Name
			}
		}
		return ""
	}
	if hit := check(e.deploys[""]); hit != "" {
		return hit
	}
	if guildID != "" {
		if hit := check(e.deploys[guildID]); hit != "" {
			return hit
		}
	}
	return ""
}

// Scripts returns the registered scripts in registration order.
func (e *Engine) Scripts() []*script.Script { return e.scripts }

// invoke runs one wrapped handler with panic recovery. Returns whether the
// script claimed the event.
func (e *Engine) invoke(name string, kind script.HandlerKind, fn func() (bool, error)) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] Script %q panicked in %s handler: %v", name, kind, r)
		}
	}()

	handled, err := fn()
	if err != nil {
		log.Printf("[ERR] Script %q failed in %s handler: %v", name, kind, err)
	}
	return handled
}

// respondError surfaces a handler failure to the invoking user.
func (e *Engine) respondError(i *discordgo.InteractionCreate, err error) {
	if e.session == nil || err == nil {
		return
	}
	embed := &discordgo.MessageEmbed{
		Color:       reply.EmbedColor,
		Description: fmt.Sprintf("Error running command: %v", err),
	}
	if respondErr := reply.RespondEmbedEphemeral(e.session, i, embed); respondErr != nil {
		log.Printf("[WARN] Failed to deliver error response: %v", respondErr)
	}
}

// HandleInteraction routes slash commands, context menus, components and
// modal submissions. Matching scripts run in registration order.
func (e *Engine) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().CommandType {
		case discordgo.MessageApplicationCommand:
			e.handleContextMenu(s, i)
		default:
			e.handleSlash(s, i)
		}

	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().ComponentType == discordgo.ButtonComponent {
			e.handleButton(s, i)
		} else {
			e.handleSelectMenu(s, i)
		}

	case discordgo.InteractionModalSubmit:
		e.handleModal(s, i)

	default:
		log.Printf("[DEBUG] Ignoring interaction type %d", i.Type)
	}
}

func (e *Engine) handleSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	for _, sc := range e.byKind[script.KindSlash] {
		claimed := e.invoke(sc.Name(), script.KindSlash, func() (bool, error) {
			handled, err := sc.HandleSlash(&script.SlashContext{Session: s, Event: i, Store: e.store})
			if handled && err != nil {
				e.respondError(i, err)
			}
			return handled, err
		})
		// Command names are unique per guild; first claim wins.
		if claimed {
			return
		}
	}
	log.Printf("[WARN] Unknown slash command: %s", name)
}

func (e *Engine) handleContextMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	for _, sc := range e.byKind[script.KindContext] {
		claimed := e.invoke(sc.Name(), script.KindContext, func() (bool, error) {
			handled, err := sc.HandleContextMenu(&script.ContextMenuContext{
				Session: s, Event: i, Store: e.store, Target: i.Message,
			})
			if handled && err != nil {
				e.respondError(i, err)
			}
			return handled, err
		})
		if claimed {
			return
		}
	}
	log.Printf("[WARN] Unknown context command: %s", i.ApplicationCommandData().Name)
}

func (e *Engine) handleButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	matched := false
	for _, sc := range e.byKind[script.KindButton] {
		claimed := e.invoke(sc.Name(), script.KindButton, func() (bool, error) {
			handled, err := sc.HandleButton(&script.ComponentContext{Session: s, Event: i, Store: e.store})
			if handled && err != nil {
				e.respondError(i, err)
			}
			return handled, err
		})
		matched = matched || claimed
	}
	if !matched {
		log.Printf("[WARN] No script matched button custom id: %s", i.MessageComponentData().CustomID)
	}
}

func (e *Engine) handleSelectMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	matched := false
	for _, sc := range e.byKind[script.KindSelectMenu] {
		claimed := e.invoke(sc.Name(), script.KindSelectMenu, func() (bool, error) {
			handled, err := sc.HandleSelectMenu(&script.ComponentContext{Session: s, Event: i, Store: e.store})
			if handled && err != nil {
				e.respondError(i, err)
			}
			return handled, err
		})
		matched = matched || claimed
	}
	if !matched {
		log.Printf("[WARN] No script matched select custom id: %s", i.MessageComponentData().CustomID)
	}
}

func (e *Engine) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	for _, sc := range e.byKind[script.KindModal] {
		claimed := e.invoke(sc.Name(), script.KindModal, func() (bool, error) {
			handled, err := sc.HandleModal(&script.ModalContext{Session: s, Event: i, Store: e.store})
			if handled && err != nil {
				e.respondError(i, err)
			}
			return handled, err
		})
		if claimed {
			return
		}
	}
	log.Printf("[WARN] No script matched modal id: %s", i.ModalSubmitData().CustomID)
}

// HandleMessage fans a created message out to every message-kind script.
func (e *Engine) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s != nil && s.State != nil && s.State.User != nil && m.Author != nil && m.Author.ID == s.State.User.ID {
		return
	}
	for _, sc := range e.byKind[script.KindMessage] {
		e.invoke(sc.Name(), script.KindMessage, func() (bool, error) {
			return sc.HandleMessage(&script.MessageContext{Session: s, Event: m, Store: e.store})
		})
	}
}

// HandleReaction fans a reaction change out to reaction-kind scripts.
func (e *Engine) HandleReaction(s *discordgo.Session, r *discordgo.MessageReaction, removed bool) {
	for _, sc := range e.byKind[script.KindReaction] {
		e.invoke(sc.Name(), script.KindReaction, func() (bool, error) {
			return sc.HandleReaction(&script.ReactionContext{Session: s, Reaction: r, Removed: removed, Store: e.store})
		})
	}
}

// HandleScheduledEvent fans a scheduled-event change out to interested
// scripts.
func (e *Engine) HandleScheduledEvent(s *discordgo.Session, ctx *script.ScheduledEventContext) {
	ctx.Session = s
	ctx.Store = e.store
	for _, sc := range e.byKind[script.KindScheduledEvent] {
		e.invoke(sc.Name(), script.KindScheduledEvent, func() (bool, error) {
			return sc.HandleScheduledEvent(ctx)
		})
	}
}

// HandleReady runs every start handler exactly once per process, after the
// session reports ready.
func (e *Engine) HandleReady(s *discordgo.Session) {
	e.startOnce.Do(func() {
		for _, sc := range e.byKind[script.KindStart] {
			e.invoke(sc.Name(), script.KindStart, func() (bool, error) {
				return sc.HandleStart(&script.StartContext{Session: s, Store: e.store})
			})
		}
	})
}

// TriggerUpdate reloads the guild's settings and runs every update handler.
func (e *Engine) TriggerUpdate(guildID string) {
	if _, err := e.cache.Refresh(guildID); err != nil {
		log.Printf("[WARN] Failed to refresh settings for guild %s: %v", guildID, err)
	}
	for _, sc := range e.byKind[script.KindUpdate] {
		e.invoke(sc.Name(), script.KindUpdate, func() (bool, error) {
			return sc.HandleUpdate(&script.UpdateContext{Session: e.session, Store: e.store, GuildID: guildID})
		})
	}
}
