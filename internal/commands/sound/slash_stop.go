package sound

import (
	"entrychime/internal/core"

	"github.com/bwmarrin/discordgo"
)

type StopCommand struct {
	Bot core.BotVoice
}

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Cut the current entrance sound and leave" }
func (c *StopCommand) Aliases() []string   { return []string{} }
func (c *StopCommand) Category() string    { return "🔊 Sounds" }
func (c *StopCommand) RequireAdmin() bool  { return false }

func (c *StopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *StopCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	s, e := context.Session, context.Event

	if c.Bot.StopSession(e.GuildID) {
		return core.RespondEphemeral(s, e, "⏹ Stopped and left the voice channel.")
	}
	return core.RespondEphemeral(s, e, "Nothing was playing.")
}

// Registered from the bot at startup, with the live instance injected.
