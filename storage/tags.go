package storage

import "github.com/sievelabs/webharvest/core"

// Wire tag names understood by the store.
const (
	tagAccess       = "access"
	tagConversation = "conversation"
)

// AccessTag returns the wire tag for an access level.
func AccessTag(access core.AccessLevel) string {
	return tagAccess + "=" + access.String()
}

// ConversationTag returns the wire tag scoping a document to a conversation.
func ConversationTag(conversationID string) string {
	return tagConversation + "=" + conversationID
}

// WireTags converts the typed tag structure to the store's string-tag
// wire format. The conversation tag is only present when the document
// is conversation-scoped.
func WireTags(tags core.DocumentTags) []string {
	wire := []string{AccessTag(tags.Access)}
	if tags.Conversation != "" {
		wire = append(wire, ConversationTag(tags.Conversation))
	}
	return wire
}
