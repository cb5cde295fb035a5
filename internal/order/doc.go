// Package order implements the exchange order intake conversation.
//
// An Engine advances one Session per user through a fixed sequence of
// prompts (direction, currency, transfer method, amount, price) and hands
// the completed Order to a Publisher, which renders the channel broadcast
// and reports a boolean outcome. Transport concerns stay behind the
// Outbound and Broadcaster ports.
package order
