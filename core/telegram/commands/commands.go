package commands

import (
	"strings"

	"github.com/m3rciful/utilbot/core/telegram/flow"
)

// Cancel leaves the active scene from any step.
const Cancel = "/cancel"

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     flow.Handler
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Name returns the command word of text without arguments or a @bot suffix.
func Name(text string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	return name
}
