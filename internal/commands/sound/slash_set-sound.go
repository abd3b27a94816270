package sound

import (
	"fmt"

	"entrychime/internal/core"

	"github.com/bwmarrin/discordgo"
)

type SetSoundCommand struct{}

func (c *SetSoundCommand) Name() string        { return "set-sound" }
func (c *SetSoundCommand) Description() string { return "Map an entrance sound to a user, channel or the default" }
func (c *SetSoundCommand) Aliases() []string   { return []string{} }
func (c *SetSoundCommand) Category() string    { return "🔊 Sounds" }
func (c *SetSoundCommand) RequireAdmin() bool  { return false }

func (c *SetSoundCommand) SlashDefinition() *discordgo.ApplicationCommand {
	soundOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "sound",
		Description: "Name of an existing sound",
		Required:    true,
	}

	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "user",
				Description: "Set the entrance sound for a user (defaults to you)",
				Options: []*discordgo.ApplicationCommandOption{
					soundOption,
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "target",
						Description: "User to map the sound to",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "channel",
				Description: "Set the entrance sound for a voice channel",
				Options: []*discordgo.ApplicationCommandOption{
					soundOption,
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "target",
						Description: "Voice channel to map the sound to",
						ChannelTypes: []discordgo.ChannelType{
							discordgo.ChannelTypeGuildVoice,
						},
						Required: true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "default",
				Description: "Set the fallback entrance sound",
				Options: []*discordgo.ApplicationCommandOption{
					soundOption,
				},
			},
		},
	}
}

func (c *SetSoundCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	s, e, st := context.Session, context.Event, context.Storage
	data := e.ApplicationCommandData()
	if len(data.Options) == 0 {
		return core.RespondEphemeral(s, e, "No subcommand provided.")
	}

	sub := data.Options[0]

	var soundName string
	var targetUser *discordgo.User
	var targetChannel *discordgo.Channel
	for _, opt := range sub.Options {
		switch opt.Name {
		case "sound":
			soundName = opt.StringValue()
		case "target":
			switch opt.Type {
			case discordgo.ApplicationCommandOptionUser:
				targetUser = opt.UserValue(s)
			case discordgo.ApplicationCommandOptionChannel:
				targetChannel = opt.ChannelValue(s)
			}
		}
	}

	// Reject unknown names before touching the mapping.
	if !context.Catalog.Exists(soundName) {
		return core.RespondEphemeral(s, e, fmt.Sprintf("No sound named `%s` in the catalog. Use /sounds to see what's available.", soundName))
	}

	invoker := e.Member.User

	switch sub.Name {
	case "user":
		target := invoker
		if targetUser != nil {
			target = targetUser
		}
		if target.ID != invoker.ID && !core.IsAdministrator(s, e.GuildID, e.Member) {
			return core.RespondEphemeral(s, e, "Only admins can set entrance sounds for other users.")
		}
		if err := st.SetUserSound(target.ID, soundName); err != nil {
			return core.RespondEphemeral(s, e, fmt.Sprintf("Failed to save the mapping: %v", err))
		}
		return core.RespondEphemeral(s, e, fmt.Sprintf("🔊 `%s` will now greet <@%s>.", soundName, target.ID))

	case "channel":
		if !core.IsAdministrator(s, e.GuildID, e.Member) {
			return core.RespondEphemeral(s, e, "Only admins can set channel entrance sounds.")
		}
		if err := st.SetChannelSound(targetChannel.ID, soundName); err != nil {
			return core.RespondEphemeral(s, e, fmt.Sprintf("Failed to save the mapping: %v", err))
		}
		return core.RespondEphemeral(s, e, fmt.Sprintf("🔊 `%s` will now greet joins to <#%s>.", soundName, targetChannel.ID))

	case "default":
		if !core.IsAdministrator(s, e.GuildID, e.Member) {
			return core.RespondEphemeral(s, e, "Only admins can set the default entrance sound.")
		}
		if err := st.SetDefaultSound(soundName); err != nil {
			return core.RespondEphemeral(s, e, fmt.Sprintf("Failed to save the mapping: %v", err))
		}
		return core.RespondEphemeral(s, e, fmt.Sprintf("🔊 `%s` is now the default entrance sound.", soundName))

	default:
		return core.RespondEphemeral(s, e, fmt.Sprintf("Unknown subcommand: %s", sub.Name))
	}
}

func init() {
	core.RegisterCommand(
		core.ApplyMiddlewares(
			&SetSoundCommand{},
			core.WithGuildOnly(),
			core.WithCommandLogger(),
		),
	)
}
