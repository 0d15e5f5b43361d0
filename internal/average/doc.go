// Package average provides a fixed-capacity sliding window of samples.
//
// The connection watchdog keeps one window per attempt to learn the
// interval between server keepalives.
package average
