package sound

import (
	"fmt"
	"strings"

	"entrychime/internal/core"

	"github.com/bwmarrin/discordgo"
)

type ListSoundsCommand struct{}

func (c *ListSoundsCommand) Name() string        { return "sounds" }
func (c *ListSoundsCommand) Description() string { return "List the available entrance sounds" }
func (c *ListSoundsCommand) Aliases() []string   { return []string{} }
func (c *ListSoundsCommand) Category() string    { return "🔊 Sounds" }
func (c *ListSoundsCommand) RequireAdmin() bool  { return false }

func (c *ListSoundsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *ListSoundsCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	s, e := context.Session, context.Event

	names := context.Catalog.List()
	if len(names) == 0 {
		return core.RespondEphemeral(s, e, "The sound catalog is empty. Add one with /add-sound.")
	}

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "• `%s`\n", name)
	}

	return core.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔊 %d entrance sounds", len(names)),
		Description: b.String(),
	})
}

func init() {
	core.RegisterCommand(
		core.ApplyMiddlewares(
			&ListSoundsCommand{},
			core.WithGuildOnly(),
			core.WithCommandLogger(),
		),
	)
}
