// Package mcp exposes the Parchís server to Model Context Protocol clients.
//
// The Client is a thin proxy over the read-only REST API, so the same tools
// work against a local or a remote server.
//
// MCP Tools:
//   - game_state: session phase, turn, last roll and piece positions
//   - board_info: topology of the active board or of a named layout
//   - list_boards: layouts the server can load
//   - game_rules: rule settings and a plain description
//
// Transport Modes:
//   - Stdio: main's stdio-mcp command serves the tools over stdin/stdout
//   - HTTP: HTTPHandler is mounted on POST /mcp by the game server
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	router.HandleFunc("/mcp", client.HTTPHandler())
//	server.ServeStdio(client.GetMCPServer())
package mcp
