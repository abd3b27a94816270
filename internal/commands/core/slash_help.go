package core

import (
	"fmt"
	"sort"
	"strings"

	"entrychime/internal/core"

	"github.com/bwmarrin/discordgo"
)

type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "List all commands" }
func (c *HelpCommand) Aliases() []string   { return []string{} }
func (c *HelpCommand) Category() string    { return "🕯️ Information" }
func (c *HelpCommand) RequireAdmin() bool  { return false }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *HelpCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	session, event := context.Session, context.Event

	byCategory := map[string][]core.Command{}
	for _, cmd := range core.AllCommands() {
		byCategory[cmd.Category()] = append(byCategory[cmd.Category()], cmd)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var fields []*discordgo.MessageEmbedField
	for _, cat := range categories {
		cmds := byCategory[cat]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })

		var b strings.Builder
		for _, cmd := range cmds {
			fmt.Fprintf(&b, "`/%s` — %s\n", cmd.Name(), cmd.Description())
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  cat,
			Value: b.String(),
		})
	}

	return core.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
		Title:  "Commands",
		Fields: fields,
	})
}

func init() {
	core.RegisterCommand(
		core.ApplyMiddlewares(
			&HelpCommand{},
			core.WithGuildOnly(),
			core.WithCommandLogger(),
		),
	)
}
