// Package session runs the single game hosted by the server.
//
// The session package implements:
//   - Joining with an optional preferred color from a four-slot ColorPool
//   - Automatic start once the minimum number of players is seated
//   - Roll and move requests translated into broadcast events
//   - Departures, turn reassignment and halting below the minimum
//   - Victory teardown: every connection is closed and a fresh game begins
//   - An optional turn timer that passes the turn of idle players
//
// Core Types:
//
// Session owns the engine.Game and the color pool. It receives decoded
// protocol messages through HandleMessage and reports lost connections
// through HandleDisconnect. Outbound messages go through a Broadcaster,
// normally the gateway hub.
//
// Concurrency:
//
// One mutex serializes every operation on the session. All messages caused
// by an operation are queued on the broadcaster before the next operation
// begins, so each connection observes events in the order they were
// applied. The only pause taken under the lock is the short start delay
// between the game-started announcement and the first turn update.
//
// Usage:
//
//	sess, err := session.New(hub, session.Options{
//		StartDelay:  time.Second,
//		TurnTimeout: 2 * time.Minute,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	hub.Handle(sess)
package session
