package protocol

import "github.com/wricardo/parchis/game/engine"

// Location is a piece position as rendered for clients. Row and Col are
// omitted for jail.
type Location struct {
	Zone  engine.Zone  `json:"zone"`
	Color engine.Color `json:"color,omitempty"`
	Index *int         `json:"index,omitempty"`
	Row   *int         `json:"row,omitempty"`
	Col   *int         `json:"col,omitempty"`
}

// NewLocation resolves loc against the board's grid
func NewLocation(b *engine.Board, loc engine.Location) Location {
	out := Location{Zone: loc.Zone, Color: loc.Color}
	if loc.Zone == engine.OnLoop || loc.Zone == engine.OnHomeLane {
		idx := loc.Index
		out.Index = &idx
	}
	if cell, ok := b.CellOf(loc); ok {
		row, col := cell.Row, cell.Col
		out.Row, out.Col = &row, &col
	}
	return out
}
