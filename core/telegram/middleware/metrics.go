package middleware

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/telegram/session"
	"github.com/m3rciful/utilbot/core/telegram/ui"
)

// countingSurface records on the update context how many messages a handler
// rendered and whether any of them carried a keyboard.
type countingSurface struct {
	ui.Surface
	c tele.Context
}

// CountRenders wraps s so renders are counted on c; read them with GetCounters.
func CountRenders(c tele.Context, s ui.Surface) ui.Surface {
	c.Set("messages", 0)
	c.Set("kb", false)
	return countingSurface{Surface: s, c: c}
}

func (m countingSurface) Render(ctx context.Context, msg ui.Message) (*session.MessageRef, error) {
	ref, err := m.Surface.Render(ctx, msg)
	if err == nil {
		n, _ := GetCounters(m.c)
		m.c.Set("messages", n+1)
		if len(msg.Keyboard) > 0 {
			m.c.Set("kb", true)
		}
	}
	return ref, err
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	msgs := 0
	if v := c.Get("messages"); v != nil {
		if n, ok := v.(int); ok {
			msgs = n
		}
	}
	kb := false
	if v := c.Get("kb"); v != nil {
		if b, ok := v.(bool); ok {
			kb = b
		}
	}
	return msgs, kb
}
