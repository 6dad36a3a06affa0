package config

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken          string   `env:"DISCORD_TOKEN,required"`
	DiscordGuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	StoragePath           string   `env:"STORAGE_PATH" envDefault:"datastore.json"`
	LogPath               string   `env:"LOG_PATH"`
	AIProvider            string   `env:"AI_PROVIDER" envDefault:"g4f:gpt-oss-120b"`
	TTSCommand            string   `env:"TTS_COMMAND"`
	DeployCommands        bool     `env:"DEPLOY_COMMANDS" envDefault:"true"`
	DeveloperID           string   `env:"DEVELOPER_ID"`
}

// New loads .env (if present) and parses the environment into a Config.
// A missing DISCORD_TOKEN is fatal.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal("[ERR] Failed to parse environment config: ", err)
	}
	return cfg
}
