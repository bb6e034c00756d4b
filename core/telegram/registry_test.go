package telegram

import (
	"testing"

	"github.com/m3rciful/utilbot/core/telegram/commands"
	"github.com/m3rciful/utilbot/core/telegram/flow"
)

func TestLookupCommand(t *testing.T) {
	reg := NewRegistry()
	h := func(*flow.Request) error { return nil }
	if err := reg.RegisterCommand("/menu", commands.Command{Handler: h, Description: "Menu", Aliases: []string{"m"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("/menu", commands.Command{Handler: h, Description: "Menu"}); err == nil {
		t.Fatalf("duplicate accepted")
	}
	if err := reg.RegisterCommand("stats", commands.Command{Handler: h, Description: "Stats"}); err == nil {
		t.Fatalf("name without slash accepted")
	}

	for _, text := range []string{"/menu", "/menu@utilbot", "/menu now", "/m", "menu"} {
		key, _, ok := reg.LookupCommand(text)
		if !ok || key != "/menu" {
			t.Fatalf("LookupCommand(%q) = %q, %v", text, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("hello"); ok {
		t.Fatalf("plain text matched a command")
	}
}

func TestListCommandsHidesAdmin(t *testing.T) {
	reg := NewRegistry()
	h := func(*flow.Request) error { return nil }
	_ = reg.RegisterCommand("/start", commands.Command{Handler: h, Description: "Start"})
	_ = reg.RegisterCommand("/stats", commands.Command{Handler: h, Description: "Stats", AdminOnly: true})
	_ = reg.RegisterCommand("/myid", commands.Command{Handler: h, Description: "Id", Hidden: true})

	if got := reg.ListCommands(true); len(got) != 1 || got[0].Text != "start" {
		t.Fatalf("visible = %+v", got)
	}
	if got := reg.ListCommands(false); len(got) != 3 || got[0].Text != "myid" {
		t.Fatalf("all = %+v", got)
	}
}
