package discord

import (
	"fmt"

	"entrychime/internal/core"
	"entrychime/internal/playback"
	"entrychime/internal/voice"

	"github.com/bwmarrin/discordgo"
)

// voiceDialer adapts discordgo voice joins to the session manager's Dialer.
type voiceDialer struct {
	bot *Bot
}

func (d *voiceDialer) Join(guildID, channelID string) (voice.Conn, error) {
	vc, err := d.bot.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	return &voiceConn{vc: vc}, nil
}

// voiceConn wraps a live discordgo voice connection.
type voiceConn struct {
	vc *discordgo.VoiceConnection
}

func (c *voiceConn) Speaking(b bool) error    { return c.vc.Speaking(b) }
func (c *voiceConn) OpusSend() chan<- []byte  { return c.vc.OpusSend }
func (c *voiceConn) Disconnect() error        { return c.vc.Disconnect() }

// Dropped reports the transport has lost readiness. discordgo never clears
// ChannelID on involuntary drops, so Ready is the only trustworthy signal.
func (c *voiceConn) Dropped() bool {
	c.vc.RLock()
	defer c.vc.RUnlock()
	return !c.vc.Ready
}

// Resumed reports readiness is back; meaningful only after a drop was seen.
func (c *voiceConn) Resumed() bool {
	c.vc.RLock()
	defer c.vc.RUnlock()
	return c.vc.Ready
}

// sinkPlayer adapts the shared playback sink to the manager's Player.
type sinkPlayer struct {
	sink *playback.Sink
}

func (p *sinkPlayer) Play(vc voice.Conn, path string) (<-chan struct{}, error) {
	return p.sink.Play(vc, path)
}

func (p *sinkPlayer) Stop() { p.sink.Stop() }

// FindUserVoiceState finds the voice state of a user
func (b *Bot) FindUserVoiceState(guildID, userID string) (*core.VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return &core.VoiceState{
				ChannelID: vs.ChannelID,
				UserID:    vs.UserID,
			}, nil
		}
	}
	return nil, fmt.Errorf("user not in any voice channel")
}

// StopSession implements core.BotVoice.
func (b *Bot) StopSession(guildID string) bool {
	return b.voice.Stop(guildID)
}

// PlayRandomSound implements core.BotVoice.
func (b *Bot) PlayRandomSound(guildID, channelID string) error {
	return b.voice.PlayRandom(guildID, channelID)
}
