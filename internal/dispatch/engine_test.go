package dispatch

import (
	"path/filepath"
	"strings"
	"testing"

	"scriptbot/internal/script"
	"scriptbot/internal/settings"
	"scriptbot/internal/storage"

	"github.com/bwmarrin/discordgo"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "test.json"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(nil, db, settings.NewCache(db))
}

func buttonEvent(customID, guildID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionMessageComponent,
			GuildID: guildID,
			Data: discordgo.MessageComponentInteractionData{
				CustomID:      customID,
				ComponentType: discordgo.ButtonComponent,
			},
			Member: &discordgo.Member{
				User: &discordgo.User{ID: "u1", Username: "tester"},
			},
		},
	}
}

func slashEvent(name, guildID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: guildID,
			Data: discordgo.ApplicationCommandInteractionData{
				Name:        name,
				CommandType: discordgo.ChatApplicationCommand,
			},
			Member: &discordgo.Member{
				User: &discordgo.User{ID: "u1", Username: "tester"},
			},
		},
	}
}

func buttonScript(name, prefix string, hits *[]string) *script.Script {
	return script.New(name, "test").
		AddButtonHandler(script.ButtonHandler{
			Match: func(customID string) bool { return strings.HasPrefix(customID, prefix) },
			Run: func(ctx *script.ComponentContext) error {
				*hits = append(*hits, name)
				return nil
			},
		}).
		SetupScope(true, script.GlobalScope(), nil)
}

func TestSettingsReturnsInjectedCache(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "test.json"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	defer db.Close()

	cache := settings.NewCache(db)
	e := New(nil, db, cache)

	if e.Settings() != cache {
		t.Fatal("expected engine to expose the cache it was built with")
	}
}

func TestButtonRoutesToMatchingScriptOnly(t *testing.T) {
	e := newTestEngine(t)

	var hits []string
	e.Register(
		buttonScript("alpha", "alpha_", &hits),
		buttonScript("beta", "beta_", &hits),
	)

	e.HandleInteraction(nil, buttonEvent("beta_pager_next", "g1"))

	if len(hits) != 1 || hits[0] != "beta" {
		t.Fatalf("expected exactly one invocation of beta, got %v", hits)
	}
}

func TestDuplicateDeployNameFirstWins(t *testing.T) {
	e := newTestEngine(t)

	mk := func(name string) *script.Script {
		return script.New(name, "test").
			AddSlashHandler(script.SlashHandler{
				Deploy: &discordgo.ApplicationCommand{Name: name, Description: "x"},
				Run:    func(ctx *script.SlashContext) error { return nil },
			}).
			SetupScope(true, script.GlobalScope(), nil)
	}

	e.Register(mk("ask"))

	// Second script reuses the same deploy name in the same (global) set.
	dup := script.New("ask", "other").
		AddSlashHandler(script.SlashHandler{
			Deploy: &discordgo.ApplicationCommand{Name: "ask", Description: "dup"},
			Run:    func(ctx *script.SlashContext) error { return nil },
		}).
		SetupScope(true, script.GlobalScope(), nil)
	e.Register(dup)

	if got := len(e.deploys[""]); got != 1 {
		t.Fatalf("expected 1 deployed payload after conflict, got %d", got)
	}
	if e.deploys[""][0].Description != "x" {
		t.Fatalf("expected first registration to keep the name, got %q", e.deploys[""][0].Description)
	}
}

func TestGuildScopedDeploysDoNotCollideAcrossGuilds(t *testing.T) {
	e := newTestEngine(t)

	mk := func(scriptName, guildID string) *script.Script {
		return script.New(scriptName, "test").
			AddSlashHandler(script.SlashHandler{
				Deploy: &discordgo.ApplicationCommand{Name: scriptName, Description: guildID},
				Run:    func(ctx *script.SlashContext) error { return nil },
			}).
			SetupScope(true, script.GuildScope(guildID), nil)
	}

	e.Register(mk("local", "g1"))

	other := script.New("local", "test2").
		AddSlashHandler(script.SlashHandler{
			Deploy: &discordgo.ApplicationCommand{Name: "local", Description: "g2"},
			Run:    func(ctx *script.SlashContext) error { return nil },
		}).
		SetupScope(true, script.GuildScope("g2"), nil)
	e.Register(other)

	if len(e.deploys["g1"]) != 1 || len(e.deploys["g2"]) != 1 {
		t.Fatalf("expected one payload per guild, got g1=%d g2=%d", len(e.deploys["g1"]), len(e.deploys["g2"]))
	}
}

func TestPanickingScriptDoesNotBlockOthers(t *testing.T) {
	e := newTestEngine(t)

	var hits []string
	bad := script.New("bad", "test").
		AddButtonHandler(script.ButtonHandler{
			Match: func(customID string) bool { return true },
			Run: func(ctx *script.ComponentContext) error {
				panic("boom")
			},
		}).
		SetupScope(true, script.GlobalScope(), nil)

	e.Register(bad, buttonScript("good", "x_", &hits))

	e.HandleInteraction(nil, buttonEvent("x_go", "g1"))

	if len(hits) != 1 || hits[0] != "good" {
		t.Fatalf("expected good script to run despite panic, got %v", hits)
	}
}

func TestMessageFanOutInRegistrationOrder(t *testing.T) {
	e := newTestEngine(t)

	var order []string
	mk := func(name string) *script.Script {
		return script.New(name, "test").
			AddMessageHandler(script.MessageHandler{
				Run: func(ctx *script.MessageContext) error {
					order = append(order, name)
					return nil
				},
			}).
			SetupScope(true, script.GlobalScope(), nil)
	}

	e.Register(mk("first"), mk("second"), mk("third"))

	e.HandleMessage(nil, &discordgo.MessageCreate{
		Message: &discordgo.Message{
			GuildID: "g1",
			Author:  &discordgo.User{ID: "u1"},
			Content: "hello",
		},
	})

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("expected %d invocations, got %v", len(want), order)
	}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("expected registration-order invocation %v, got %v", want, order)
		}
	}
}

func TestSlashStopsAtFirstClaim(t *testing.T) {
	e := newTestEngine(t)

	var hits []string
	mk := func(name string) *script.Script {
		return script.New(name, "test").
			AddSlashHandler(script.SlashHandler{
				Deploy: &discordgo.ApplicationCommand{Name: name, Description: "x"},
				Run: func(ctx *script.SlashContext) error {
					hits = append(hits, name)
					return nil
				},
			}).
			SetupScope(true, script.GlobalScope(), nil)
	}

	e.Register(mk("ping"), mk("ask"))

	e.HandleInteraction(nil, slashEvent("ask", "g1"))

	if len(hits) != 1 || hits[0] != "ask" {
		t.Fatalf("expected only the named command to run, got %v", hits)
	}
}

func TestUpdateRefreshesSettingsCache(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "test.json"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	defer db.Close()

	cache := settings.NewCache(db)
	e := New(nil, db, cache)

	var seen string
	upd := script.New("watch", "test").
		AddUpdateHandler(script.UpdateHandler{
			Run: func(ctx *script.UpdateContext) error {
				gs, err := cache.Get(ctx.GuildID)
				if err != nil {
					return err
				}
				seen = gs.Field(settings.FieldNotifyChannelID)
				return nil
			},
		}).
		SetupScope(true, script.GlobalScope(), nil)
	e.Register(upd)

	// Warm the cache with the empty state, then change storage behind it.
	if _, err := cache.Get("g1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := settings.Set(db, "g1", settings.FieldNotifyChannelID, "chan-9"); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	e.TriggerUpdate("g1")

	if seen != "chan-9" {
		t.Fatalf("expected update handler to observe refreshed settings, got %q", seen)
	}
}
