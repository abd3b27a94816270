package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"entrychime/internal/core"

	"github.com/bwmarrin/discordgo"
)

type DumpDBCommand struct{}

func (c *DumpDBCommand) Name() string        { return "get-db" }
func (c *DumpDBCommand) Description() string { return "Dumps the preference mapping as a JSON file" }
func (c *DumpDBCommand) Aliases() []string   { return []string{} }
func (c *DumpDBCommand) Category() string    { return "🛠️ Maintenance" }
func (c *DumpDBCommand) RequireAdmin() bool  { return true }

func (c *DumpDBCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *DumpDBCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	session, event, storage := context.Session, context.Event, context.Storage

	record := storage.Snapshot()
	jsonBytes, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return core.RespondEphemeral(session, event, fmt.Sprintf("JSON encode failed: ```%v```", err))
	}

	file := &discordgo.File{
		Name:        "preferences_dump.json",
		ContentType: "application/json",
		Reader:      bytes.NewReader(jsonBytes),
	}

	err = session.InteractionRespond(event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "🧠 Current preference mapping.",
			Files:   []*discordgo.File{file},
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Println("Failed to send dump:", err)
	}
	return err
}

func init() {
	core.RegisterCommand(
		core.ApplyMiddlewares(
			&DumpDBCommand{},
			core.WithGuildOnly(),
			core.WithAdminCheck(),
			core.WithCommandLogger(),
		),
	)
}
