package discord

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// onVoiceStateUpdate drives the session manager from member movement.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if s.State.User != nil && vs.UserID == s.State.User.ID {
		if vs.GuildID == "" {
			return
		}
		if vs.ChannelID == "" {
			// Our own state dropping to no-channel without a teardown on
			// our side means the platform kicked us.
			go b.voice.HandleDisconnect(vs.GuildID)
		} else {
			// Dragged to another channel; the session stays bound to its
			// origin and leaves instead of following.
			b.voice.ChannelChanged(vs.GuildID, vs.ChannelID)
		}
		return
	}

	if b.isBotUser(vs.GuildID, vs.UserID) {
		return
	}

	joined := vs.ChannelID != "" && (vs.BeforeUpdate == nil || vs.BeforeUpdate.ChannelID == "")
	if joined {
		go func() {
			if err := b.voice.Greet(vs.GuildID, vs.ChannelID, vs.UserID); err != nil {
				log.Printf("[ERR] Greeting failed in guild %s: %v", vs.GuildID, err)
			}
		}()
		return
	}

	// A leave or move may have emptied the channel the session joined for.
	if vs.BeforeUpdate != nil && vs.BeforeUpdate.ChannelID != "" && vs.BeforeUpdate.ChannelID != vs.ChannelID {
		if b.humanOccupants(vs.GuildID, vs.BeforeUpdate.ChannelID) == 0 {
			b.voice.ChannelEmptied(vs.GuildID, vs.BeforeUpdate.ChannelID)
		}
	}
}

// humanOccupants counts non-bot members currently in the channel.
func (b *Bot) humanOccupants(guildID, channelID string) int {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		log.Printf("[WARN] Cannot inspect guild %s for occupancy: %v", guildID, err)
		return -1
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		if b.dg.State.User != nil && vs.UserID == b.dg.State.User.ID {
			continue
		}
		if !b.isBotUser(guildID, vs.UserID) {
			count++
		}
	}
	return count
}

func (b *Bot) isBotUser(guildID, userID string) bool {
	member, err := b.dg.State.Member(guildID, userID)
	if err != nil {
		member, err = b.dg.GuildMember(guildID, userID)
		if err != nil {
			return false
		}
	}
	return member.User != nil && member.User.Bot
}
