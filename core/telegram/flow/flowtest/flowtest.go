// Package flowtest provides a recording Surface and request builders for tests.
package flowtest

import (
	"context"
	"errors"
	"sync"

	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/session"
	"github.com/m3rciful/utilbot/core/telegram/ui"
)

// Surface records every render and delete.
type Surface struct {
	mu        sync.Mutex
	Renders   []ui.Message
	Deleted   []session.MessageRef
	DeleteErr error
	nextID    int
}

var _ ui.Surface = (*Surface)(nil)

func (s *Surface) Render(_ context.Context, msg ui.Message) (*session.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Renders = append(s.Renders, msg)
	if msg.Target != nil {
		ref := *msg.Target
		return &ref, nil
	}
	s.nextID++
	return &session.MessageRef{ChatID: msg.ChatID, MessageID: 1000 + s.nextID}, nil
}

func (s *Surface) Delete(_ context.Context, ref session.MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, ref)
	return s.DeleteErr
}

// Last returns the most recent render.
func (s *Surface) Last() ui.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Renders) == 0 {
		return ui.Message{}
	}
	return s.Renders[len(s.Renders)-1]
}

// Count returns the number of renders.
func (s *Surface) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Renders)
}

// ErrDelete is a canned delete failure.
var ErrDelete = errors.New("flowtest: delete failed")

// Chat is the chat id used by the builders.
const Chat int64 = 100

// Request builds a request for sess on surface with ev.
func Request(sess *session.Session, surface ui.Surface, ev flow.Event) *flow.Request {
	if ev.ChatID == 0 {
		ev.ChatID = Chat
	}
	if ev.UserID == 0 {
		ev.UserID = ev.ChatID
	}
	return &flow.Request{Ctx: context.Background(), Event: ev, Session: sess, UI: surface}
}

// Press is a button press on message 1.
func Press(data string) flow.Event {
	return flow.Event{ChatID: Chat, Data: data, Message: &session.MessageRef{ChatID: Chat, MessageID: 1}}
}

// Text is an inbound text message.
func Text(text string) flow.Event {
	return flow.Event{ChatID: Chat, Text: text, Incoming: &session.MessageRef{ChatID: Chat, MessageID: 2}}
}
