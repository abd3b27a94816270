package core

import (
	"entrychime/internal/sound"
	"entrychime/internal/storage"

	"github.com/bwmarrin/discordgo"
)

type Command interface {
	Name() string
	Description() string
	Aliases() []string
	Category() string
	RequireAdmin() bool
	Run(ctx interface{}) error
}

// Providers - how this command should be registered with Discord
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// Contexts - what runtime hands you when executing a command
type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
	Catalog *sound.Catalog
}

// VoiceState holds minimal voice channel state for a user.
type VoiceState struct {
	ChannelID string
	UserID    string
}

// BotVoice is what voice-aware commands need from the running bot.
type BotVoice interface {
	FindUserVoiceState(guildID, userID string) (*VoiceState, error)
	StopSession(guildID string) bool
	PlayRandomSound(guildID, channelID string) error
}
