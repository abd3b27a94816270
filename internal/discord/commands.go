package discord

import (
	"context"
	"log"
	"time"

	cmdsound "entrychime/internal/commands/sound"
	"entrychime/internal/core"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// Discord allows roughly 40 command writes per second per application.
var registerLimiter = rate.NewLimiter(rate.Every(time.Second/40), 1)

// registerVoiceCommands registers the commands that need the live bot.
func (b *Bot) registerVoiceCommands() {
	for _, cmd := range []core.Command{
		&cmdsound.StopCommand{Bot: b},
		&cmdsound.RandomCommand{Bot: b},
	} {
		core.RegisterCommand(
			core.ApplyMiddlewares(
				cmd,
				core.WithGuildOnly(),
				core.WithCommandLogger(),
			),
		)
	}
}

// registerCommands syncs the guild's slash commands: obsolete ones are
// deleted and only definitions whose hash changed are re-created.
func (b *Bot) registerCommands(guildID string) error {
	appID := b.dg.State.User.ID
	if appID == "" {
		user, err := b.dg.User("@me")
		if err != nil {
			return err
		}
		appID = user.ID
	}

	existing, _ := b.dg.ApplicationCommands(appID, guildID)
	localHashes := loadGuildCommandHashes(guildID)

	var wanted []*discordgo.ApplicationCommand
	wantedHashes := make(map[string]string)
	for _, cmd := range core.AllCommands() {
		if def := normalizeDefinition(cmd); def != nil {
			wanted = append(wanted, def)
			wantedHashes[def.Name] = hashCommand(def)
		}
	}

	// Delete obsolete
	for _, old := range existing {
		if _, ok := wantedHashes[old.Name]; !ok {
			log.Printf("[INFO] [%s] Deleting obsolete command: %s", guildID, old.Name)
			if err := b.dg.ApplicationCommandDelete(appID, guildID, old.ID); err != nil {
				log.Printf("[ERR] [%s] Failed to delete %s: %v", guildID, old.Name, err)
			}
			delete(localHashes, old.Name)
		}
	}

	// Create or update changed commands
	var changed []*discordgo.ApplicationCommand
	for _, cmd := range wanted {
		if localHashes[cmd.Name] != wantedHashes[cmd.Name] {
			changed = append(changed, cmd)
		}
	}

	if len(changed) > 0 {
		log.Printf("[INFO] [%s] %d commands changed, updating with rate limit...", guildID, len(changed))
		for _, cmd := range changed {
			if err := registerLimiter.Wait(context.Background()); err != nil {
				break
			}
			if _, err := b.dg.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
				log.Printf("[ERR] Can't create command %s: %v", cmd.Name, err)
				continue
			}
			log.Printf("[DONE] Command created: %s", cmd.Name)
			localHashes[cmd.Name] = wantedHashes[cmd.Name]
		}
	}

	saveGuildCommandHashes(guildID, localHashes)
	return nil
}

// normalizeDefinition normalizes a command definition
func normalizeDefinition(cmd core.Command) *discordgo.ApplicationCommand {
	if slash, ok := cmd.(core.SlashProvider); ok {
		if def := slash.SlashDefinition(); def != nil {
			if def.Type == 0 {
				def.Type = discordgo.ChatApplicationCommand
			}
			return def
		}
	}
	return nil
}
