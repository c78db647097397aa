package chats

import (
	"context"
	"fmt"
	"sync"

	"github.com/jinzhu/copier"
)

// MemoryStore is an in-process Store used by tests and the terminal client.
// Chats are deep-copied on both writes and reads so callers can never mutate
// stored state through retained references.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string]*Chat
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: map[string]*Chat{}}
}

func (s *MemoryStore) GetByChatID(_ context.Context, chatID string) (*Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, nil
	}
	copied, err := cloneChat(chat)
	if err != nil {
		return nil, fmt.Errorf("failed to copy chat %s: %w", chatID, err)
	}
	return copied, nil
}

func (s *MemoryStore) Upsert(_ context.Context, chat *Chat) error {
	copied, err := cloneChat(chat)
	if err != nil {
		return fmt.Errorf("failed to copy chat %s: %w", chat.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chat.ID] = copied
	return nil
}

func cloneChat(chat *Chat) (*Chat, error) {
	copied := &Chat{}
	if err := copier.CopyWithOption(copied, chat, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return copied, nil
}
