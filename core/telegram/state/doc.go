// Package state keeps per-user conversation sessions for Telegram bots.
// Stores are generic over the session type so bots own their own schema.
package state
