package session

import (
	"context"
	"fmt"
)

// Store maps a chat key to its session. Writes are last-write-wins; callers
// serialize read-modify-write cycles per chat with a Locker.
type Store interface {
	Read(ctx context.Context, key string) (*Session, bool, error)
	Write(ctx context.Context, key string, s *Session) error
}

// Load returns the stored session for chatID or a fresh default one.
func Load(ctx context.Context, store Store, chatID int64) (*Session, error) {
	s, ok, err := store.Read(ctx, Key(chatID))
	if err != nil {
		return nil, fmt.Errorf("session: read %d: %w", chatID, err)
	}
	if !ok || s == nil {
		return New(chatID), nil
	}
	return s, nil
}

// Save writes s under its chat key.
func Save(ctx context.Context, store Store, s *Session) error {
	if err := store.Write(ctx, Key(s.ChatID), s); err != nil {
		return fmt.Errorf("session: write %d: %w", s.ChatID, err)
	}
	return nil
}
