package model

// InboundMessage is the transport-neutral form of a Telegram text message.
type InboundMessage struct {
	ChatID           int64
	ChatTitle        string
	ChatType         string
	MessageID        int
	ReplyToMessageID int // 0 when the message is not a reply
	Text             string
	From             TelegramAccount
}

// Group builds the chat group record implied by the message.
func (m InboundMessage) Group(botType BotType) ChatGroup {
	return ChatGroup{
		ID:      m.ChatID,
		Title:   m.ChatTitle,
		Type:    m.ChatType,
		InGroup: true,
		BotType: botType,
	}
}

// MemberStatus mirrors Telegram chat member statuses.
type MemberStatus string

const (
	MemberCreator       MemberStatus = "creator"
	MemberAdministrator MemberStatus = "administrator"
	MemberMember        MemberStatus = "member"
	MemberRestricted    MemberStatus = "restricted"
	MemberLeft          MemberStatus = "left"
	MemberKicked        MemberStatus = "kicked"
)

// ChatMemberChange describes a change of the bot's own membership in a chat.
type ChatMemberChange struct {
	ChatID      int64
	ChatTitle   string
	ChatType    string
	By          TelegramAccount
	OldStatus   MemberStatus
	NewStatus   MemberStatus
	OldIsMember bool
	NewIsMember bool
}

func isMember(status MemberStatus, restrictedMember bool) bool {
	switch status {
	case MemberCreator, MemberAdministrator, MemberMember:
		return true
	case MemberRestricted:
		return restrictedMember
	}
	return false
}

// StatusChange returns whether the bot was and is a member. ok is false when the status
// did not change.
func (c ChatMemberChange) StatusChange() (wasMember, nowMember, ok bool) {
	if c.OldStatus == c.NewStatus && c.OldIsMember == c.NewIsMember {
		return false, false, false
	}
	return isMember(c.OldStatus, c.OldIsMember), isMember(c.NewStatus, c.NewIsMember), true
}
