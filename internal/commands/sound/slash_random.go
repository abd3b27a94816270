package sound

import (
	"errors"
	"fmt"
	"log"

	"entrychime/internal/core"
	"entrychime/internal/voice"

	"github.com/bwmarrin/discordgo"
)

type RandomCommand struct {
	Bot core.BotVoice
}

func (c *RandomCommand) Name() string        { return "random" }
func (c *RandomCommand) Description() string { return "Join your voice channel and play a random sound" }
func (c *RandomCommand) Aliases() []string   { return []string{} }
func (c *RandomCommand) Category() string    { return "🔊 Sounds" }
func (c *RandomCommand) RequireAdmin() bool  { return false }

func (c *RandomCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *RandomCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	s, e := context.Session, context.Event
	invoker := e.Member.User

	vs, err := c.Bot.FindUserVoiceState(e.GuildID, invoker.ID)
	if err != nil {
		return core.RespondEphemeral(s, e, "You need to be in a voice channel for that.")
	}

	// Joining and playing outlives the interaction window.
	if err := core.RespondDeferredEphemeral(s, e); err != nil {
		log.Printf("[ERR] Failed to defer interaction: %v", err)
		return err
	}

	if err := c.Bot.PlayRandomSound(e.GuildID, vs.ChannelID); err != nil {
		switch {
		case errors.Is(err, voice.ErrNoSounds):
			return core.FollowupEphemeral(s, e, "No sounds available. Add one with /add-sound.")
		case errors.Is(err, voice.ErrAlreadyPlaying):
			return core.FollowupEphemeral(s, e, "Already playing something, hold on.")
		default:
			log.Printf("[ERR] Random play failed in guild %s: %v", e.GuildID, err)
			return core.FollowupEphemeral(s, e, fmt.Sprintf("Couldn't play: %v", err))
		}
	}

	return core.FollowupEphemeral(s, e, "🎲 Played a random sound.")
}

// Registered from the bot at startup, with the live instance injected.
