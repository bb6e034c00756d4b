package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Data returns the raw payload of cb. Buttons created with a telebot unique
// key arrive split into Unique and Data; they are joined back as unique|data.
func Data(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	data := strings.TrimPrefix(cb.Data, "\f")
	if cb.Unique == "" {
		return data
	}
	if data == "" {
		return cb.Unique
	}
	return cb.Unique + "|" + data
}
