package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/core/buildinfo"
	"github.com/m3rciful/utilbot/core/telegram/commands"
	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/helpers"
)

const (
	nothingToCancelText = "Nothing to cancel."
	fallbackText        = "Use /menu to manage your addresses and meters."
	adminOnlyText       = "⛔ This command is for the bot admin."
)

func (a *App) registerCommands() error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: a.start, Description: "Start the bot", Hidden: true}},
		{"/menu", commands.Command{Handler: a.showRoot, Description: "Addresses and meters"}},
		{commands.Cancel, commands.Command{Handler: a.cancel, Description: "Cancel the current action"}},
		{"/help", commands.Command{Handler: a.help, Description: "Show help"}},
		{"/myid", commands.Command{Handler: a.myID, Description: "Show your Telegram id"}},
		{"/version", commands.Command{Handler: a.version, Description: "Show the bot version", Hidden: true}},
		{"/stats", commands.Command{Handler: a.stats, Description: "Usage statistics", AdminOnly: true, Hidden: true}},
	}
	for _, c := range cmds {
		if err := a.commands.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}
	a.commands.SetTextFallback(func(req *flow.Request) error {
		return req.Reply(fallbackText, nil)
	})
	return nil
}

func (a *App) start(req *flow.Request) error {
	err := a.store.UpsertUser(req.Context(), models.User{
		TelegramID: req.Event.UserID,
		Username:   req.Event.Username,
	})
	if err != nil {
		return err
	}
	return a.showRoot(req)
}

func (a *App) showRoot(req *flow.Request) error {
	return a.nav.Show(req, actions.RootMenu, false)
}

// cancel only runs outside scenes; inside one the dispatcher handles /cancel.
func (a *App) cancel(req *flow.Request) error {
	return req.Reply(nothingToCancelText, nil)
}

func (a *App) help(req *flow.Request) error {
	var b strings.Builder
	b.WriteString("I keep track of utility meters and bills.\n")
	for _, c := range a.commands.ListCommands(true) {
		fmt.Fprintf(&b, "\n/%s - %s", c.Text, c.Description)
	}
	return req.Reply(b.String(), nil)
}

func (a *App) myID(req *flow.Request) error {
	text := fmt.Sprintf("Your Telegram id: %d", req.Event.UserID)
	user, err := helpers.CurrentUser[models.User](req, a.store)
	switch {
	case err == nil:
		text += "\nWith us since " + user.CreatedAt.Format("02.01.2006")
	case !errors.Is(err, models.ErrNotFound):
		return err
	}
	return req.Reply(text, nil)
}

func (a *App) version(req *flow.Request) error {
	return req.Reply(buildinfo.String(), nil)
}

func (a *App) stats(req *flow.Request) error {
	s, err := a.store.Stats(req.Context())
	if err != nil {
		return err
	}
	return req.Reply(fmt.Sprintf("📈 Users: %d\nAddresses: %d\nAccounts: %d\nReadings: %d",
		s.Users, s.Addresses, s.Accounts, s.Readings), nil)
}

func adminReject(req *flow.Request) error {
	return req.Reply(adminOnlyText, nil)
}
