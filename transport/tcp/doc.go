// Package tcp carries the game protocol over raw TCP connections.
//
// Each line is one JSON message in the same {"type", "data"} envelope used
// by the WebSocket transport. Frames longer than protocol.MaxFrameSize end
// the connection after an error reply.
package tcp
