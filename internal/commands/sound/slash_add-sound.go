package sound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"entrychime/internal/core"
	"entrychime/internal/sound"
	"entrychime/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
)

// maxSoundBytes caps attachment downloads; greeting clips are short.
const maxSoundBytes = 10 << 20

type AddSoundCommand struct{}

func (c *AddSoundCommand) Name() string        { return "add-sound" }
func (c *AddSoundCommand) Description() string { return "Upload a new entrance sound (mp3)" }
func (c *AddSoundCommand) Aliases() []string   { return []string{} }
func (c *AddSoundCommand) Category() string    { return "🔊 Sounds" }
func (c *AddSoundCommand) RequireAdmin() bool  { return false }

func (c *AddSoundCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Name for the new sound",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        "file",
				Description: "The mp3 file to upload",
				Required:    true,
			},
		},
	}
}

func (c *AddSoundCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	s, e := context.Session, context.Event
	data := e.ApplicationCommandData()

	var name string
	var attachment *discordgo.MessageAttachment
	for _, opt := range data.Options {
		switch opt.Name {
		case "name":
			name = strings.TrimSpace(opt.StringValue())
		case "file":
			if att, ok := data.Resolved.Attachments[opt.Value.(string)]; ok {
				attachment = att
			}
		}
	}

	if name == "" || attachment == nil {
		return core.RespondEphemeral(s, e, "Both a name and an mp3 file are required.")
	}
	if !strings.HasSuffix(strings.ToLower(attachment.Filename), sound.Extension) {
		return core.RespondEphemeral(s, e, fmt.Sprintf("Only `%s` files are supported, got `%s`.", sound.Extension, attachment.Filename))
	}
	if context.Catalog.Exists(name) {
		return core.RespondEphemeral(s, e, fmt.Sprintf("A sound named `%s` already exists.", name))
	}

	// Downloading can take a moment; defer before fetching.
	if err := core.RespondDeferredEphemeral(s, e); err != nil {
		log.Printf("[ERR] Failed to defer interaction: %v", err)
		return err
	}

	payload, err := downloadAttachment(attachment.URL)
	if err != nil {
		log.Printf("[ERR] Failed to download attachment %s: %v", attachment.Filename, err)
		return core.FollowupEphemeral(s, e, "Couldn't download that file, try again.")
	}

	if err := context.Catalog.Add(name, payload); err != nil {
		switch {
		case errors.Is(err, sound.ErrAlreadyExists):
			return core.FollowupEphemeral(s, e, fmt.Sprintf("A sound named `%s` already exists.", name))
		case errors.Is(err, sound.ErrInvalidFormat):
			return core.FollowupEphemeral(s, e, "That file doesn't look like a valid mp3.")
		default:
			log.Printf("[ERR] Failed to store sound %s: %v", name, err)
			return core.FollowupEphemeral(s, e, "Couldn't save the sound, try again.")
		}
	}

	return core.FollowupEphemeral(s, e, fmt.Sprintf("🔊 Sound `%s` added.", name))
}

// downloadAttachment fetches the CDN payload, retrying transient failures.
func downloadAttachment(url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var payload []byte
	err := retrylimit.WithRetry(ctx, 3, func() error {
		resp, err := http.Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &retrylimit.StatusError{Code: resp.StatusCode}
		}

		payload, err = io.ReadAll(io.LimitReader(resp.Body, maxSoundBytes))
		return err
	})
	return payload, err
}

func init() {
	core.RegisterCommand(
		core.ApplyMiddlewares(
			&AddSoundCommand{},
			core.WithGuildOnly(),
			core.WithAdminCheck(),
			core.WithCommandLogger(),
		),
	)
}
