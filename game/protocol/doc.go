// Package protocol defines the messages exchanged with game clients.
//
// Every message travels in a typed envelope:
//
//	{"type": "dice-result", "data": {"color": "red", "die1": 3, "die2": 3, ...}}
//
// Decode returns the concrete message for the tag so receivers can use a
// type switch; unknown tags fail with ErrUnknownType and broken JSON with
// ErrMalformed. On WebSocket connections each envelope is one text frame.
// On raw TCP connections envelopes are newline-delimited and read with
// FrameReader, which rejects frames larger than MaxFrameSize.
package protocol
