package tools

import "context"

type conversationKey struct{}

// WithConversation scopes ctx to one editor conversation. The editor tools
// are shared across requests and read the id back in Execute.
func WithConversation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey{}, id)
}

// ConversationFrom returns the conversation id set by WithConversation, or "".
func ConversationFrom(ctx context.Context) string {
	id, _ := ctx.Value(conversationKey{}).(string)
	return id
}
