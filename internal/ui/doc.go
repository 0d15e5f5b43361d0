// Package ui bridges published state to an external presentation layer.
//
// A Bridge implements state.Publisher. It keeps the latest connection and
// player state and streams every event to WebSocket clients on /events.
// The two host commands (set server, UI ready) are exposed as HTTP
// endpoints alongside /health and /state.
package ui
