// Package commands describes slash commands exposed by the bot.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash command handler with its menu metadata.
// AdminOnly commands are rejected for everyone except the configured admin.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
}

// Listed reports whether the command belongs in the public command menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}
