package entities

import "strconv"

// JoinedMember is the slice of a guild member join the welcome flow needs
type JoinedMember struct {
	GuildID    int64
	UserID     int64
	Username   string
	AvatarHash string // empty when the user has no custom avatar
}

// Mention returns the Discord mention token for the member
func (m JoinedMember) Mention() string {
	return "<@" + strconv.FormatInt(m.UserID, 10) + ">"
}

// HasAvatar reports whether the member has an avatar to fetch
func (m JoinedMember) HasAvatar() bool {
	return m.AvatarHash != ""
}

// WelcomePlan is the greeting content picked from a guild's settings, before
// the avatar is fetched and the image rendered
type WelcomePlan struct {
	ChannelID int64
	Text      string
	HasText   bool
	Placement *Placement // nil when no image is sent
}

// WelcomeMessage is a rendered greeting ready for delivery
type WelcomeMessage struct {
	ChannelID int64
	Text      string
	HasText   bool
	Image     []byte // PNG; nil when no image is sent
	Filename  string
	ImageKey  string
}

// IsEmpty reports whether there is nothing to deliver
func (m *WelcomeMessage) IsEmpty() bool {
	return m == nil || ((!m.HasText || m.Text == "") && len(m.Image) == 0)
}
