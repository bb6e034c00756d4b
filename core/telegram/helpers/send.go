package helpers

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action string, run func() error) error {
	return globalDispatcher.Load().Do(BuildContext(c), action, run)
}

// SendText sends plain text to the current chat outside the rendering surface.
func SendText(c tele.Context, text string) error {
	return sendAsync(c, "send.text", func() error {
		return c.Send(text)
	})
}

// Notify answers the pending callback query with a short toast; without a
// callback it does nothing.
func Notify(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	return sendAsync(c, "callback.answer", func() error {
		return c.Respond(&tele.CallbackResponse{Text: text})
	})
}
