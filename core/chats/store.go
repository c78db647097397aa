package chats

import "context"

// Store is the persistence boundary for chats. Upsert is called exactly once
// per completed turn with the final, fully-assembled message list; it must be
// idempotent per chat id.
type Store interface {
	GetByChatID(ctx context.Context, chatID string) (*Chat, error)
	Upsert(ctx context.Context, chat *Chat) error
}
