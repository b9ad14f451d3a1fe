package common

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const managePermissions = discordgo.PermissionAdministrator | discordgo.PermissionManageGuild

// ParseID converts a Discord snowflake string to int64
func ParseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// FormatID converts an int64 snowflake to its string form
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// GetChannelMention returns a Discord mention string for a channel
func GetChannelMention(channelID int64) string {
	return "<#" + FormatID(channelID) + ">"
}

// HasManagePermissions reports whether the permission set includes Administrator or Manage Server
func HasManagePermissions(permissions int64) bool {
	return permissions&managePermissions != 0
}

// IsUserAdmin checks if the interaction's member may configure welcomes.
// Interaction payloads carry the member's computed permissions; when they are
// missing the member's roles are checked through the session state.
func IsUserAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member == nil || i.Member.User == nil {
		return false
	}
	if HasManagePermissions(i.Member.Permissions) {
		return true
	}

	if guild, err := s.State.Guild(i.GuildID); err == nil && guild.OwnerID == i.Member.User.ID {
		return true
	}

	member, err := s.GuildMember(i.GuildID, i.Member.User.ID)
	if err != nil {
		log.Errorf("Failed to get guild member: %v", err)
		return false
	}
	for _, roleID := range member.Roles {
		role, err := s.State.Role(i.GuildID, roleID)
		if err != nil {
			continue
		}
		if HasManagePermissions(role.Permissions) {
			return true
		}
	}
	return false
}
