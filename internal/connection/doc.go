// Package connection implements the Vibin feed connection.
//
// A Connection runs one attempt against the Vibin WebSocket server:
//   - Handshake under a fixed timeout
//   - Frame loop interleaving a 2s tick with inbound frames
//   - Keepalive watchdog inferring silent connection loss from ping gaps
//   - Dispatch of System, TransportState, CurrentlyPlaying and Position frames
//
// The Manager supervises attempts: it enforces a single active attempt,
// retries lost connections after a fixed delay, and stops for good when the
// server was never reached.
package connection
