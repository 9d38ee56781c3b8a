// Package config provides server settings and board layout management for
// the Parchís server.
//
// Settings come from Default, overridden by PARCHIS_* environment variables
// through Load, and are checked by Validate. Command-line flags override the
// loaded values in main.
//
// Board layouts are JSON files in the boards directory, one layout per file:
//
//	{
//	  "name": "classic",
//	  "description": "...",
//	  "loop": [{"row": 7, "col": 0}, ...],
//	  "entries": {"red": {"row": 7, "col": 0}, ...},
//	  "home_lanes": {"red": [{"row": 8, "col": 1}, ...], ...},
//	  "safe": [{"row": 7, "col": 0}, ...]
//	}
//
// Usage:
//
//	manager, err := config.NewManager("boards")
//	board, err := manager.LoadBoard("classic")
//	boards, err := manager.ListBoards()
//
// The classic layout is built in, so LoadBoard("classic") succeeds even
// without a boards directory. A file named classic.json overrides it.
package config
