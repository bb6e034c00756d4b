package helpers

import (
	"context"

	"github.com/m3rciful/utilbot/core/telegram/flow"
)

// UserSource looks users up by Telegram id.
type UserSource[T any] interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (T, error)
}

// CurrentUser returns the user who sent req's event.
func CurrentUser[T any](req *flow.Request, users UserSource[T]) (T, error) {
	return users.GetUserByTelegramID(req.Context(), req.Event.UserID)
}
