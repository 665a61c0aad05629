// Package apex consumes the Apex Timing live feed.
//
// The feed is a WebSocket carrying text frames. Each frame holds one or more
// newline separated lines of the form "cmd|subcmd|value". Lines are applied
// to a State, which keeps the latest titles, race clock, announcer comment
// and timing grid behind a mutex and numbers every change with a monotonic
// sequence.
package apex
