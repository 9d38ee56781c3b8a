// Package api provides the HTTP surface of the Parchís server.
//
// The REST endpoints are read-only and meant for operators and tooling; all
// gameplay happens over the player connections.
//
// Endpoints:
//   - GET /api/health - status, uptime, phase and connection count
//   - GET /api/state - full session snapshot
//   - GET /api/board - active board topology
//   - GET /api/boards - available layouts
//   - GET /api/boards/{name} - one layout as a board file
//   - GET /api/rules - rule settings and a plain description
//   - GET /ws - player WebSocket
//
// Usage:
//
//	srv := api.NewServer(api.Options{
//		Game:        sess,
//		Boards:      boards,
//		Connections: hub,
//		WebSocket:   ws.ServeWS,
//	})
//	http.ListenAndServe(":8080", srv)
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{"error": "error message"}
package api
