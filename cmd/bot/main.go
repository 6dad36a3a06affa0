package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"scriptbot/internal/ai"
	"scriptbot/internal/bot"
	"scriptbot/internal/config"
	"scriptbot/internal/dispatch"
	"scriptbot/internal/logging"
	"scriptbot/internal/scripts/ask"
	"scriptbot/internal/scripts/chat"
	"scriptbot/internal/scripts/ping"
	"scriptbot/internal/scripts/schedule"
	settingscmd "scriptbot/internal/scripts/settings"
	"scriptbot/internal/scripts/speak"
	"scriptbot/internal/settings"
	"scriptbot/internal/storage"
	"scriptbot/internal/tts"
	v "scriptbot/internal/version"

	"github.com/bwmarrin/discordgo"
)

func main() {
	log.Printf("[INFO] Starting %v...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()
	logging.Setup(cfg.LogPath)

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatal("[ERR] Failed to create Discord session: ", err)
	}

	cache := settings.NewCache(store)
	engine := dispatch.New(dg, store, cache)

	aiClient := ai.NewClient(ai.NewProvider(cfg.AIProvider))
	synth := tts.New(cfg.TTSCommand)

	notifyReconfigure := func(guildID string) {
		engine.Publish(dispatch.SystemEvent{Kind: dispatch.SystemEventReconfigure, GuildID: guildID})
	}

	engine.Register(
		ping.New(),
		ask.New(store, aiClient),
		chat.New(aiClient, engine.Settings()),
		schedule.New(store),
		speak.New(synth),
		settingscmd.New(notifyReconfigure, cfg.DeveloperID),
	)

	b := bot.New(dg, cfg, engine)

	errCh := make(chan error, 1)
	go func() {
		if err := b.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Printf("[INFO] %v exited cleanly", v.AppName)
}
