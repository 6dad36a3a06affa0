package script

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type auditSpy struct {
	records []AuditRecord
}

func (a *auditSpy) LogInteraction(rec AuditRecord) {
	a.records = append(a.records, rec)
}

func slashInteraction(name, guildID, userID string) *SlashContext {
	return &SlashContext{
		Event: &discordgo.InteractionCreate{
			Interaction: &discordgo.Interaction{
				Type:    discordgo.InteractionApplicationCommand,
				GuildID: guildID,
				Data: discordgo.ApplicationCommandInteractionData{
					Name:        name,
					CommandType: discordgo.ChatApplicationCommand,
				},
				Member: &discordgo.Member{
					User: &discordgo.User{ID: userID, Username: "tester"},
				},
			},
		},
	}
}

func buttonInteraction(customID, guildID, userID string) *ComponentContext {
	return &ComponentContext{
		Event: &discordgo.InteractionCreate{
			Interaction: &discordgo.Interaction{
				Type:    discordgo.InteractionMessageComponent,
				GuildID: guildID,
				Data: discordgo.MessageComponentInteractionData{
					CustomID:      customID,
					ComponentType: discordgo.ButtonComponent,
				},
				Member: &discordgo.Member{
					User: &discordgo.User{ID: userID, Username: "tester"},
				},
			},
		},
	}
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestSlashDeployNameMismatchPanics(t *testing.T) {
	mustPanic(t, "slash name mismatch", func() {
		New("greet", "fun").AddSlashHandler(SlashHandler{
			Deploy: &discordgo.ApplicationCommand{Name: "hello"},
			Run:    func(*SlashContext) error { return nil },
		})
	})
}

func TestContextDeployNameMismatchPanics(t *testing.T) {
	mustPanic(t, "context name mismatch", func() {
		New("greet", "fun").AddContextHandler(ContextHandler{
			Deploy: &discordgo.ApplicationCommand{Name: "hello"},
			Run:    func(*ContextMenuContext) error { return nil },
		})
	})
}

func TestDuplicateHandlerKindPanics(t *testing.T) {
	s := New("greet", "fun").AddMessageHandler(MessageHandler{
		Run: func(*MessageContext) error { return nil },
	})
	mustPanic(t, "second message handler", func() {
		s.AddMessageHandler(MessageHandler{Run: func(*MessageContext) error { return nil }})
	})
}

func TestSetupScopeTwicePanics(t *testing.T) {
	s := New("greet", "fun").SetupScope(true, GlobalScope(), nil)
	mustPanic(t, "second SetupScope", func() {
		s.SetupScope(true, GlobalScope(), nil)
	})
}

func TestScopeMismatchSkipsSilently(t *testing.T) {
	audit := &auditSpy{}
	called := false

	s := New("greet", "fun").
		AddSlashHandler(SlashHandler{
			Deploy: &discordgo.ApplicationCommand{Name: "greet", Description: "greet"},
			Run: func(*SlashContext) error {
				called = true
				return nil
			},
		}).
		SetupScope(true, GuildScope("guild-a"), nil)
	s.Bind(nil, nil, audit)

	handled, err := s.HandleSlash(slashInteraction("greet", "guild-b", "user-1"))
	if err != nil {
		t.Fatalf("HandleSlash: %v", err)
	}
	if handled {
		t.Error("out-of-scope event reported as handled")
	}
	if called {
		t.Error("user callback ran for out-of-scope guild")
	}
	if len(audit.records) != 0 {
		t.Errorf("audit line written for out-of-scope guild: %+v", audit.records)
	}
}

func TestInScopeInvokesAndAudits(t *testing.T) {
	audit := &auditSpy{}
	called := false

	s := New("greet", "fun").
		AddSlashHandler(SlashHandler{
			Deploy: &discordgo.ApplicationCommand{Name: "greet", Description: "greet"},
			Run: func(*SlashContext) error {
				called = true
				return nil
			},
		}).
		SetupScope(true, GuildScope("guild-a"), nil)
	s.Bind(nil, nil, audit)

	handled, err := s.HandleSlash(slashInteraction("greet", "guild-a", "user-1"))
	if err != nil {
		t.Fatalf("HandleSlash: %v", err)
	}
	if !handled || !called {
		t.Errorf("handled=%v called=%v, want both true", handled, called)
	}
	if len(audit.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(audit.records))
	}
	rec := audit.records[0]
	if rec.Script != "greet" || rec.GuildID != "guild-a" || rec.UserID != "user-1" {
		t.Errorf("audit record = %+v", rec)
	}
	if rec.ID == "" {
		t.Error("audit record missing id")
	}
}

func TestAuditEmittedEvenWhenHandlerFails(t *testing.T) {
	audit := &auditSpy{}
	s := New("greet", "fun").
		AddSlashHandler(SlashHandler{
			Deploy: &discordgo.ApplicationCommand{Name: "greet", Description: "greet"},
			Run:    func(*SlashContext) error { return errors.New("boom") },
		}).
		SetupScope(true, GlobalScope(), nil)
	s.Bind(nil, nil, audit)

	handled, err := s.HandleSlash(slashInteraction("greet", "guild-a", "user-1"))
	if !handled || err == nil {
		t.Fatalf("handled=%v err=%v, want handled with error", handled, err)
	}
	if len(audit.records) != 1 {
		t.Errorf("expected audit record despite handler failure, got %d", len(audit.records))
	}
}

func TestUnconfiguredScriptReturnsNotConfigured(t *testing.T) {
	called := false
	s := New("greet", "fun").AddSlashHandler(SlashHandler{
		Deploy: &discordgo.ApplicationCommand{Name: "greet", Description: "greet"},
		Run: func(*SlashContext) error {
			called = true
			return nil
		},
	})
	// Neither SetupScope nor Bind was called.

	handled, err := s.HandleSlash(slashInteraction("greet", "guild-a", "user-1"))
	if !handled {
		t.Fatal("matching event not claimed")
	}
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if called {
		t.Error("user callback ran on unconfigured script")
	}
}

func TestUserBlacklistBlocks(t *testing.T) {
	called := false
	s := New("greet", "fun").
		AddSlashHandler(SlashHandler{
			Deploy: &discordgo.ApplicationCommand{Name: "greet", Description: "greet"},
			Run: func(*SlashContext) error {
				called = true
				return nil
			},
		}).
		SetupScope(true, GlobalScope(), &UserFilter{Blacklist: []string{"user-1"}})
	s.Bind(nil, nil, nil)

	handled, _ := s.HandleSlash(slashInteraction("greet", "guild-a", "user-1"))
	if handled || called {
		t.Error("blacklisted user reached the handler")
	}

	handled, _ = s.HandleSlash(slashInteraction("greet", "guild-a", "user-2"))
	if !handled || !called {
		t.Error("non-blacklisted user was blocked")
	}
}

func TestButtonPredicateDecidesApplicability(t *testing.T) {
	called := false
	s := New("greet", "fun").
		AddButtonHandler(ButtonHandler{
			Match: func(customID string) bool { return customID == "greet_go" },
			Run: func(*ComponentContext) error {
				called = true
				return nil
			},
		}).
		SetupScope(true, GlobalScope(), nil)
	s.Bind(nil, nil, nil)

	handled, _ := s.HandleButton(buttonInteraction("other_go", "guild-a", "user-1"))
	if handled || called {
		t.Error("non-matching custom id handled")
	}

	handled, _ = s.HandleButton(buttonInteraction("greet_go", "guild-a", "user-1"))
	if !handled || !called {
		t.Error("matching custom id not handled")
	}
}

func TestDisabledScriptSkips(t *testing.T) {
	called := false
	s := New("greet", "fun").
		AddSlashHandler(SlashHandler{
			Deploy: &discordgo.ApplicationCommand{Name: "greet", Description: "greet"},
			Run: func(*SlashContext) error {
				called = true
				return nil
			},
		}).
		SetupScope(false, GlobalScope(), nil)
	s.Bind(nil, nil, nil)

	handled, err := s.HandleSlash(slashInteraction("greet", "guild-a", "user-1"))
	if handled || called || err != nil {
		t.Errorf("disabled script ran: handled=%v called=%v err=%v", handled, called, err)
	}
}
