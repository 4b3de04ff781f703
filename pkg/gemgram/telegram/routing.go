// Package telegram – routing.go decides which inbound messages reach the
// conversation state machine at all. Messages that fail here are dropped
// silently: no orchestrator run, no outbound send.
package telegram

// ChatKind is the coarse conversation type of an inbound message.
type ChatKind int

const (
	ChatUnknown ChatKind = iota
	ChatPrivate
	ChatGroup
	ChatChannel
)

// AllowPolicy is the configured group/channel allow-list check, typically
// (*bot.Config).GroupAllowed.
type AllowPolicy func(chatID int64) bool

// ShouldProcess reports whether a message is eligible for the state
// machine: not from the bot's own account, and either a private chat or a
// group/channel passing the allow-list.
func ShouldProcess(kind ChatKind, chatID, senderID, selfID int64, allowed AllowPolicy) bool {
	if senderID == selfID {
		return false
	}
	switch kind {
	case ChatPrivate:
		return true
	case ChatGroup, ChatChannel:
		return allowed != nil && allowed(chatID)
	default:
		return false
	}
}
