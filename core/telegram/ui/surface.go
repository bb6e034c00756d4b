// Package ui is the rendering boundary: scenes and menus describe what to show,
// a Surface decides whether that means editing a message or sending a new one.
package ui

import (
	"context"

	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/session"
)

// Message is one render request.
type Message struct {
	ChatID int64
	// Target is edited when set; otherwise a new message is sent.
	Target   *session.MessageRef
	Text     string
	Keyboard keyboard.Keyboard
	Markdown bool
}

// Surface renders and deletes chat messages.
type Surface interface {
	Render(ctx context.Context, msg Message) (*session.MessageRef, error)
	Delete(ctx context.Context, ref session.MessageRef) error
}

// Deleter is the part of Surface the idle supervisor needs.
type Deleter interface {
	Delete(ctx context.Context, ref session.MessageRef) error
}
