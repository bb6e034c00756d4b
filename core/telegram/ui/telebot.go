package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/sender"
	"github.com/m3rciful/utilbot/core/telegram/session"
)

// BotAPI is the subset of *tele.Bot used by TeleSurface.
type BotAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// TeleSurface renders through the Bot API. Deletes go through the async sender when one is set.
type TeleSurface struct {
	bot    BotAPI
	outbox *sender.Dispatcher
}

func NewTeleSurface(bot BotAPI, outbox *sender.Dispatcher) *TeleSurface {
	return &TeleSurface{bot: bot, outbox: outbox}
}

func (s *TeleSurface) Render(ctx context.Context, msg Message) (*session.MessageRef, error) {
	opts := &tele.SendOptions{ReplyMarkup: keyboard.Markup(msg.Keyboard)}
	if msg.Markdown {
		opts.ParseMode = tele.ModeMarkdown
	}

	if msg.Target != nil {
		edited, err := s.bot.Edit(stored(*msg.Target), msg.Text, opts)
		switch {
		case err == nil:
			if edited == nil {
				return msg.Target, nil
			}
			return refOf(edited), nil
		case notModified(err):
			return msg.Target, nil
		default:
			logger.Debug(ctx, "tg", "render.edit_fallback",
				slog.Int("message_id", msg.Target.MessageID),
				slog.Any("err", err),
			)
		}
	}

	sent, err := s.bot.Send(tele.ChatID(msg.ChatID), msg.Text, opts)
	if err != nil {
		return nil, fmt.Errorf("ui: send to %d: %w", msg.ChatID, err)
	}
	return refOf(sent), nil
}

func (s *TeleSurface) Delete(ctx context.Context, ref session.MessageRef) error {
	return s.outbox.Do(ctx, "delete", func() error {
		err := s.bot.Delete(stored(ref))
		if err != nil && gone(err) {
			return nil
		}
		return err
	})
}

func stored(ref session.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{ChatID: ref.ChatID, MessageID: strconv.Itoa(ref.MessageID)}
}

func refOf(m *tele.Message) *session.MessageRef {
	ref := &session.MessageRef{MessageID: m.ID}
	if m.Chat != nil {
		ref.ChatID = m.Chat.ID
	}
	return ref
}

func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

func gone(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "message to delete not found") || strings.Contains(msg, "message can't be deleted")
}
