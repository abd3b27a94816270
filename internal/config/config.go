// /internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken          string        `env:"DISCORD_TOKEN,required"`
	StoragePath           string        `env:"STORAGE_PATH" envDefault:"preferences.json"`
	SoundsPath            string        `env:"SOUNDS_PATH" envDefault:"./assets/sounds"`
	DeveloperID           string        `env:"DEVELOPER_ID"`
	DiscordGuildBlacklist []string      `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	InitSlashCommands     bool          `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	VoiceReadyTimeout     time.Duration `env:"VOICE_READY_TIMEOUT" envDefault:"5s"`
	VoiceReconnectTimeout time.Duration `env:"VOICE_RECONNECT_TIMEOUT" envDefault:"5s"`
	VoiceSettleDelay      time.Duration `env:"VOICE_SETTLE_DELAY" envDefault:"1s"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal("Failed to parse environment config: ", err)
	}
	return cfg
}
