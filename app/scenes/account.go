package scenes

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/scene"
)

var accountNumberRe = regexp.MustCompile(`^[0-9A-Za-z-]{1,32}$`)

type accountState struct {
	AddressID string
	Resource  models.Resource
	MeterType models.MeterType
}

// createAccount asks for the resource, the meter type (electricity only) and
// the account number.
type createAccount struct{ base }

func (s *createAccount) Name() string { return actions.CreateAccount }

func (s *createAccount) Steps() []scene.Step {
	return []scene.Step{s.askResource, s.pickResource, s.pickMeter, s.saveNumber}
}

func (s *createAccount) askResource(c *scene.Context) error {
	var row keyboard.Row
	for _, r := range models.Resources {
		row = append(row, keyboard.Btn(r.Emoji()+" "+r.Label(), callbacks.Join(actions.Resource, string(r))))
	}
	kb := keyboard.Keyboard{row, {keyboard.CancelButton()}}
	if err := c.Render("Choose the resource:", kb); err != nil {
		return err
	}
	return c.Next()
}

func (s *createAccount) pickResource(c *scene.Context) error {
	st := scene.State[accountState](c)
	if isCancel(c) {
		return s.abort(c, actions.AddressMenu(st.AddressID))
	}
	v, ok := callbacks.Match(c.Event.Data, actions.Resource)
	if !ok || !models.Resource(v).Valid() {
		return nil
	}
	st.Resource = models.Resource(v)
	if st.Resource != models.Electricity {
		return c.SelectStep(3)
	}

	kb := keyboard.Keyboard{}
	for _, m := range models.MeterTypes {
		kb = append(kb, keyboard.Row{keyboard.Btn(m.Label(), callbacks.Join(actions.Meter, string(m)))})
	}
	kb = kb.Append(keyboard.Row{keyboard.CancelButton()})
	if err := c.Render("Choose the meter type:", kb); err != nil {
		return err
	}
	return c.Next()
}

func (s *createAccount) pickMeter(c *scene.Context) error {
	st := scene.State[accountState](c)
	if isCancel(c) {
		return s.abort(c, actions.AddressMenu(st.AddressID))
	}
	v, ok := callbacks.Match(c.Event.Data, actions.Meter)
	if !ok || !models.MeterType(v).Valid() {
		return nil
	}
	st.MeterType = models.MeterType(v)
	if err := s.promptNumber(c, ""); err != nil {
		return err
	}
	return c.Next()
}

func (s *createAccount) promptNumber(c *scene.Context, notice string) error {
	st := scene.State[accountState](c)
	msg := fmt.Sprintf("%s Enter the account number:", st.Resource.Emoji())
	if notice != "" {
		msg = notice + "\n" + msg
	}
	return c.Render(msg, keyboard.CancelOnly())
}

func (s *createAccount) saveNumber(c *scene.Context) error {
	st := scene.State[accountState](c)
	if isCancel(c) {
		return s.abort(c, actions.AddressMenu(st.AddressID))
	}
	number, ok := text(c)
	if !ok {
		return s.promptNumber(c, "")
	}
	if !accountNumberRe.MatchString(number) {
		return s.promptNumber(c, "⚠️ Use up to 32 letters, digits or dashes.")
	}

	acc := models.Account{
		AccountNumber: number,
		Resource:      st.Resource,
		AddressID:     st.AddressID,
	}
	if st.Resource == models.Electricity && st.MeterType != "" {
		mt := string(st.MeterType)
		acc.MeterType = &mt
	}
	err := s.store.CreateAccount(c.Context(), &acc)
	if errors.Is(err, models.ErrDuplicate) {
		return s.promptNumber(c, fmt.Sprintf("⚠️ Account №%s already exists.", number))
	}
	if err != nil {
		return err
	}
	logger.Info(c.Context(), logger.CompScene, "account.created",
		slog.String("account_id", acc.ID),
		slog.String("resource", string(acc.Resource)),
	)
	return s.backToMenu(c, fmt.Sprintf("✅ Account №%s created.", number), actions.AddressMenu(st.AddressID))
}
