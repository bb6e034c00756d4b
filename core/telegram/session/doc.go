// Package session keeps per-chat conversation state: the active scene and step,
// the scene's wizard data and the menu breadcrumbs. Stores are swappable behind
// the Store interface; the bot ships with an in-memory implementation.
package session
