package session

import (
	"slices"
	"strconv"
	"time"
)

// MessageRef points at a message the bot sent and may edit or delete later.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Wizard is the transient state of one scene invocation.
type Wizard struct {
	// Message is the interactive message the scene keeps editing.
	Message *MessageRef
	// Data holds the scene's own state value, usually a pointer to a struct.
	Data any
}

// Session is the per-chat record.
type Session struct {
	ChatID int64
	Scene  string
	Step   int
	Wizard Wizard

	MenuStack   []string
	CurrentMenu string

	UpdatedAt time.Time
}

// New returns the default idle session for chatID.
func New(chatID int64) *Session {
	return &Session{ChatID: chatID}
}

// Key converts a chat id into the store key.
func Key(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// InScene reports whether a scene is active.
func (s *Session) InScene() bool {
	return s != nil && s.Scene != ""
}

// ResetScene drops the scene position and wizard data.
func (s *Session) ResetScene() {
	s.Scene = ""
	s.Step = 0
	s.Wizard = Wizard{}
}

// Clone copies the session. Wizard.Data is shared with the original.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.MenuStack = slices.Clone(s.MenuStack)
	if s.Wizard.Message != nil {
		m := *s.Wizard.Message
		c.Wizard.Message = &m
	}
	return &c
}

// PushMenu appends id to the breadcrumbs.
func (s *Session) PushMenu(id string) {
	s.MenuStack = append(s.MenuStack, id)
}

// PopMenu removes and returns the most recent breadcrumb.
func (s *Session) PopMenu() (string, bool) {
	n := len(s.MenuStack)
	if n == 0 {
		return "", false
	}
	id := s.MenuStack[n-1]
	s.MenuStack = s.MenuStack[:n-1]
	return id, true
}

// TopMenu returns the most recent breadcrumb without removing it.
func (s *Session) TopMenu() (string, bool) {
	if len(s.MenuStack) == 0 {
		return "", false
	}
	return s.MenuStack[len(s.MenuStack)-1], true
}
