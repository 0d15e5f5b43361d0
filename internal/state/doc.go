// Package state holds the two structures published to the presentation
// layer and the boundary they are published through.
//
//   - Lifecycle: the connection state machine (Disconnected, Connecting,
//     Connected, Disconnecting). Every transition is published while the
//     lifecycle lock is held, so observers see transitions in order.
//   - Store: the aggregated Vibin payload state, merged from feed frames.
//
// Publisher implementations are called with state locks held and must not
// block.
package state
