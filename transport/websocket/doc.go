// Package websocket carries the game protocol over WebSocket connections.
//
// Each upgraded connection is registered with the gateway hub as a peer and
// served by two goroutines: readPump hands every text frame to the hub, and
// writePump drains the peer's outbound queue, one JSON message per frame,
// and keeps the connection alive with pings.
//
// Usage:
//
//	hub := gateway.NewHub(gateway.Options{})
//	ws := websocket.NewServer(hub, logger)
//	router.HandleFunc("/ws", ws.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects and gets a fresh peer id
// 2. Client sends join and receives joined
// 3. Game messages flow in both directions
// 4. A read error or close reports ConnectionLost, which runs the same
// cleanup as an explicit leave
// 5. When the hub drops the peer, queued messages are written and the
// connection is closed
package websocket
