// Package keyboard describes inline keyboards independently of the transport
// and converts them into telebot markup.
package keyboard

import (
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// Universal callback payloads.
const (
	Cancel   = "cancel"
	Confirm  = "confirm"
	MenuBack = "menu-back"
	Close    = "delete-msg"
)

// Button is a label plus its opaque callback payload.
type Button struct {
	Text string
	Data string
}

// Btn is shorthand for Button{text, data}.
func Btn(text, data string) Button {
	return Button{Text: text, Data: data}
}

// Row is one line of buttons.
type Row []Button

// Keyboard is an ordered list of rows.
type Keyboard []Row

// Column places each button on its own row.
func Column(buttons ...Button) Keyboard {
	kb := make(Keyboard, 0, len(buttons))
	for _, b := range buttons {
		kb = append(kb, Row{b})
	}
	return kb
}

// Grid splits buttons into rows of up to n. n <= 1 behaves like Column.
func Grid(buttons []Button, n int) Keyboard {
	if n <= 1 {
		return Column(buttons...)
	}
	var kb Keyboard
	for i := 0; i < len(buttons); i += n {
		kb = append(kb, Row(buttons[i:min(i+n, len(buttons))]))
	}
	return kb
}

// Append adds rows and returns the extended keyboard.
func (k Keyboard) Append(rows ...Row) Keyboard {
	return append(append(Keyboard(nil), k...), rows...)
}

// CancelButton returns the universal cancel button.
func CancelButton() Button {
	return Btn("❌ Cancel", Cancel)
}

// CancelOnly is a keyboard with a single cancel button.
func CancelOnly() Keyboard {
	return Keyboard{{CancelButton()}}
}

// ConfirmOrCancel offers confirm and cancel side by side.
func ConfirmOrCancel() Keyboard {
	return Keyboard{{Btn("✅ Confirm", Confirm), CancelButton()}}
}

// Back is a single back button leading to data.
func Back(data string) Keyboard {
	return Keyboard{{Btn("⬅️ Back", data)}}
}

// Months lists short month names, January first.
var Months = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// YearMonth renders the twelve months of year in rows of three, then a row
// switching between the previous, current and next year, then cancel.
// Month payloads are select-month-<year>-<month>, year payloads select-year-<year>.
func YearMonth(year int) Keyboard {
	months := make([]Button, 0, 12)
	for i, name := range Months {
		months = append(months, Btn(name, "select-month-"+strconv.Itoa(year)+"-"+strconv.Itoa(i+1)))
	}
	kb := Grid(months, 3)
	years := Row{}
	for y := year - 1; y <= year+1; y++ {
		label := strconv.Itoa(y)
		if y == year {
			label = "· " + label + " ·"
		}
		years = append(years, Btn(label, "select-year-"+strconv.Itoa(y)))
	}
	return kb.Append(years, Row{CancelButton()})
}

// Markup converts k into telebot inline markup. Payloads are sent verbatim.
func Markup(k Keyboard) *tele.ReplyMarkup {
	if len(k) == 0 {
		return nil
	}
	inline := make([][]tele.InlineButton, 0, len(k))
	for _, row := range k {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, tele.InlineButton{Text: b.Text, Data: b.Data})
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// ReplyButtons builds a resized reply keyboard from rows of labels.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var kb []tele.Row
	for _, row := range rows {
		var btns []tele.Btn
		for _, label := range row {
			btns = append(btns, markup.Text(label))
		}
		kb = append(kb, markup.Row(btns...))
	}
	markup.Reply(kb...)
	return markup
}
