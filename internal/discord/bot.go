package discord

import (
	"context"
	"fmt"
	"log"
	"slices"

	"entrychime/internal/config"
	"entrychime/internal/playback"
	"entrychime/internal/sound"
	"entrychime/internal/storage"
	"entrychime/internal/voice"
	"entrychime/pkg/util"

	"github.com/bwmarrin/discordgo"
)

// Bot is the Discord front of the entrance-sound engine.
type Bot struct {
	dg      *discordgo.Session
	cfg     *config.Config
	store   *storage.Storage
	catalog *sound.Catalog
	voice   *voice.Manager
	sink    *playback.Sink
}

func NewBot(cfg *config.Config, store *storage.Storage, catalog *sound.Catalog, resolver *sound.Resolver) *Bot {
	b := &Bot{
		cfg:     cfg,
		store:   store,
		catalog: catalog,
		sink:    playback.NewSink(),
	}
	b.voice = voice.NewManager(
		&voiceDialer{bot: b},
		resolver,
		&sinkPlayer{sink: b.sink},
		voice.Options{
			ReadyTimeout:     cfg.VoiceReadyTimeout,
			ReconnectTimeout: cfg.VoiceReconnectTimeout,
			SettleDelay:      cfg.VoiceSettleDelay,
		},
	)
	return b
}

// Run starts the Discord session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	b.dg = dg
	b.registerVoiceCommands()

	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentsGuildMembers | discordgo.IntentsGuildVoiceStates

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onVoiceStateUpdate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	b.voice.Shutdown()
	return nil
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		log.Println("[WARN] Error retrieving bot user:", err)
		return
	}

	var guildIDs []string
	for _, g := range r.Guilds {
		if b.isGuildBlacklisted(g.ID) {
			log.Printf("[INFO] Leaving blacklisted guild: %s (%s)", g.ID, g.Name)
			if err := s.GuildLeave(g.ID); err != nil {
				log.Printf("[ERR] Failed to leave guild %s: %v", g.ID, err)
			}
			continue
		}
		guildIDs = append(guildIDs, g.ID)
	}

	if b.cfg.InitSlashCommands {
		err := util.Parallel(guildIDs, 4, func(_ context.Context, guildID string) error {
			if err := b.registerCommands(guildID); err != nil {
				log.Println("[ERR] Error registering slash commands for guild", guildID, ":", err)
			}
			return nil
		})
		if err != nil {
			log.Println("[ERR] Command registration sweep failed:", err)
		}
	} else {
		log.Println("[INFO] Registering slash commands skipped")
	}

	log.Printf("[INFO] ✅ Discord bot %v is running.", botInfo.Username)
}

// onGuildCreate is called when the bot is added to a guild
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Bot added to guild: %s (%s)", g.Guild.ID, g.Guild.Name)

	if b.isGuildBlacklisted(g.Guild.ID) {
		log.Printf("[INFO] Leaving blacklisted guild: %s (%s)", g.Guild.ID, g.Guild.Name)
		if err := s.GuildLeave(g.Guild.ID); err != nil {
			log.Printf("[ERR] Failed to leave guild %s: %v", g.Guild.ID, err)
		}
		return
	}

	if err := b.registerCommands(g.Guild.ID); err != nil {
		log.Printf("[ERR] Failed to register commands for new guild %s: %v", g.Guild.ID, err)
	}
}

func (b *Bot) isGuildBlacklisted(guildID string) bool {
	return slices.Contains(b.cfg.DiscordGuildBlacklist, guildID)
}
