// Package flow carries one inbound update through the dispatcher, the scene
// engine, menus and action handlers.
package flow

import (
	"context"
	"fmt"

	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/session"
	"github.com/m3rciful/utilbot/core/telegram/ui"
)

// Event is the transport-neutral view of an update.
type Event struct {
	UpdateID int
	ChatID   int64
	UserID   int64
	Username string
	// Text of an inbound message.
	Text string
	// Data of a pressed inline button.
	Data string
	// Message carrying the pressed button.
	Message *session.MessageRef
	// Incoming is the user's own text message.
	Incoming *session.MessageRef
}

// IsCallback reports whether the event is a button press.
func (e Event) IsCallback() bool {
	return e.Data != ""
}

// Handler processes one request.
type Handler func(req *Request) error

// Request is the per-update context handed to handlers.
type Request struct {
	Ctx     context.Context
	Event   Event
	Session *session.Session
	UI      ui.Surface
}

// Context returns the request context, never nil.
func (r *Request) Context() context.Context {
	if r.Ctx == nil {
		return context.Background()
	}
	return r.Ctx
}

// Render shows text and kb on the interactive surface.
func (r *Request) Render(text string, kb keyboard.Keyboard) error {
	return r.render(ui.Message{Text: text, Keyboard: kb})
}

// RenderMarkdown is Render with Markdown formatting.
func (r *Request) RenderMarkdown(text string, kb keyboard.Keyboard) error {
	return r.render(ui.Message{Text: text, Keyboard: kb, Markdown: true})
}

// Reply always sends a new message.
func (r *Request) Reply(text string, kb keyboard.Keyboard) error {
	_, err := r.UI.Render(r.Context(), ui.Message{ChatID: r.Event.ChatID, Text: text, Keyboard: kb})
	if err != nil {
		return fmt.Errorf("flow: reply: %w", err)
	}
	return nil
}

// Target picks the message to edit: the scene's interactive message, then the
// message carrying the pressed button, else none.
func (r *Request) Target() *session.MessageRef {
	if r.Session != nil && r.Session.Wizard.Message != nil {
		return r.Session.Wizard.Message
	}
	return r.Event.Message
}

func (r *Request) render(msg ui.Message) error {
	msg.ChatID = r.Event.ChatID
	msg.Target = r.Target()
	ref, err := r.UI.Render(r.Context(), msg)
	if err != nil {
		return fmt.Errorf("flow: render: %w", err)
	}
	if r.Session.InScene() {
		r.Session.Wizard.Message = ref
	}
	return nil
}

// DeleteIncoming removes the user's text message, ignoring failures.
func (r *Request) DeleteIncoming() {
	if r.Event.Incoming != nil {
		_ = r.UI.Delete(r.Context(), *r.Event.Incoming)
	}
}
