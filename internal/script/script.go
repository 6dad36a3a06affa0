// Package script defines the declarative unit a feature registers with the
// dispatch engine: identity, audience scope and typed event handlers, built
// through a fluent builder. The engine never special-cases a feature; it
// only talks to the wrapped Handle* accessors here.
package script

import (
	"errors"
	"fmt"
	"log"

	"scriptbot/internal/storage"

	"github.com/bwmarrin/discordgo"
)

// ErrNotConfigured is returned when a handler fires before SetupScope was
// called or before the engine bound the platform client. Only that dispatch
// path aborts; the process stays alive.
var ErrNotConfigured = errors.New("script is not configured")

type Script struct {
	name    string
	group   string
	enabled bool

	scope Scope
	users *UserFilter

	scoped bool // SetupScope called
	bound  bool // engine injected session/store/audit

	session *discordgo.Session
	store   *storage.Storage
	audit   AuditLogger

	handlers map[HandlerKind]any
}

// New creates a descriptor. Name and group are required; the name must equal
// the deployed command name whenever a slash or context handler is attached.
func New(name, group string) *Script {
	if name == "" || group == "" {
		panic("script: name and group are required")
	}
	return &Script{
		name:     name,
		group:    group,
		enabled:  true,
		handlers: make(map[HandlerKind]any),
	}
}

func (s *Script) Name() string  { return s.name }
func (s *Script) Group() string { return s.group }
func (s *Script) Enabled() bool { return s.enabled }
func (s *Script) Scope() Scope  { return s.scope }

// Has reports whether a handler of the given kind is attached.
func (s *Script) Has(kind HandlerKind) bool {
	_, ok := s.handlers[kind]
	return ok
}

// SetupScope sets enablement, guild scope and the optional user filter.
// It must be called exactly once before the script is dispatched.
func (s *Script) SetupScope(enabled bool, scope Scope, users *UserFilter) *Script {
	if s.scoped {
		panic(fmt.Sprintf("script %q: SetupScope called twice", s.name))
	}
	s.enabled = enabled
	s.scope = scope
	s.users = users
	s.scoped = true
	return s
}

// Bind injects the platform client, store and audit sink. Called by the
// engine at registration; scripts never call it themselves.
func (s *Script) Bind(session *discordgo.Session, store *storage.Storage, audit AuditLogger) {
	s.session = session
	s.store = store
	s.audit = audit
	s.bound = true
}

func (s *Script) put(kind HandlerKind, h any) {
	if _, exists := s.handlers[kind]; exists {
		panic(fmt.Sprintf("script %q: %s handler registered twice", s.name, kind))
	}
	s.handlers[kind] = h
}

// AddSlashHandler attaches the slash command handler. The deploy name must
// equal the script name; a mismatched name would silently never trigger, so
// it fails fast at registration.
func (s *Script) AddSlashHandler(h SlashHandler) *Script {
	if h.Deploy == nil || h.Run == nil {
		panic(fmt.Sprintf("script %q: slash handler needs deploy data and a callback", s.name))
	}
	if h.Deploy.Name != s.name {
		panic(fmt.Sprintf("script %q: slash deploy name %q does not match script name", s.name, h.Deploy.Name))
	}
	if h.Deploy.Type == 0 {
		h.Deploy.Type = discordgo.ChatApplicationCommand
	}
	s.put(KindSlash, &h)
	return s
}

// AddContextHandler attaches a message context-menu handler. The same
// name-equality rule applies, with the same fail-fast policy as slash
// handlers.
func (s *Script) AddContextHandler(h ContextHandler) *Script {
	if h.Deploy == nil || h.Run == nil {
		panic(fmt.Sprintf("script %q: context handler needs deploy data and a callback", s.name))
	}
	if h.Deploy.Name != s.name {
		panic(fmt.Sprintf("script %q: context deploy name %q does not match script name", s.name, h.Deploy.Name))
	}
	if h.Deploy.Type == 0 {
		h.Deploy.Type = discordgo.MessageApplicationCommand
	}
	s.put(KindContext, &h)
	return s
}

func (s *Script) AddButtonHandler(h ButtonHandler) *Script {
	if h.Match == nil || h.Run == nil {
		panic(fmt.Sprintf("script %q: button handler needs a matcher and a callback", s.name))
	}
	s.put(KindButton, &h)
	return s
}

func (s *Script) AddSelectMenuHandler(h SelectMenuHandler) *Script {
	if h.Match == nil || h.Run == nil {
		panic(fmt.Sprintf("script %q: select-menu handler needs a matcher and a callback", s.name))
	}
	s.put(KindSelectMenu, &h)
	return s
}

func (s *Script) AddModalHandler(h ModalHandler) *Script {
	if h.Match == nil || h.Run == nil {
		panic(fmt.Sprintf("script %q: modal handler needs a matcher and a callback", s.name))
	}
	s.put(KindModal, &h)
	return s
}

func (s *Script) AddMessageHandler(h MessageHandler) *Script {
	if h.Run == nil {
		panic(fmt.Sprintf("script %q: message handler needs a callback", s.name))
	}
	s.put(KindMessage, &h)
	return s
}

func (s *Script) AddReactionHandler(h ReactionHandler) *Script {
	if h.Run == nil {
		panic(fmt.Sprintf("script %q: reaction handler needs a callback", s.name))
	}
	s.put(KindReaction, &h)
	return s
}

func (s *Script) AddScheduledEventHandler(h ScheduledEventHandler) *Script {
	if h.Run == nil {
		panic(fmt.Sprintf("script %q: scheduled-event handler needs a callback", s.name))
	}
	s.put(KindScheduledEvent, &h)
	return s
}

func (s *Script) AddStartHandler(h StartHandler) *Script {
	if h.Run == nil {
		panic(fmt.Sprintf("script %q: start handler needs a callback", s.name))
	}
	s.put(KindStart, &h)
	return s
}

func (s *Script) AddUpdateHandler(h UpdateHandler) *Script {
	if h.Run == nil {
		panic(fmt.Sprintf("script %q: update handler needs a callback", s.name))
	}
	s.put(KindUpdate, &h)
	return s
}

// DeployData returns the command payloads this script wants deployed.
func (s *Script) DeployData() []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	if h, ok := s.handlers[KindSlash].(*SlashHandler); ok {
		defs = append(defs, h.Deploy)
	}
	if h, ok := s.handlers[KindContext].(*ContextHandler); ok {
		defs = append(defs, h.Deploy)
	}
	return defs
}

// eligible applies the scope/enable filter. A mismatch is routine filtering,
// not an error. An unscoped script passes through so ensureReady can report
// the real problem.
func (s *Script) eligible(guildID, userID string) bool {
	if !s.scoped {
		return true
	}
	if !s.enabled {
		return false
	}
	if !s.scope.Allows(guildID) {
		return false
	}
	return s.users.allows(userID)
}

func (s *Script) ensureReady() error {
	if !s.scoped || !s.bound {
		log.Printf("[ERR] Script %q invoked before setup (scoped=%v bound=%v)", s.name, s.scoped, s.bound)
		return fmt.Errorf("script %q: %w", s.name, ErrNotConfigured)
	}
	return nil
}
