package engine

import "fmt"

// Cell is a grid coordinate on the rendered board
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Board is the immutable topology of a layout: the shared loop, each
// color's entry point and home lane, and the safe cells.
type Board struct {
	name      string
	loop      []Cell
	loopIndex map[Cell]int
	entries   map[Color]int
	homeLanes map[Color][]Cell
	safe      map[Cell]bool
}

// NewBoard validates cfg and builds a Board from it
func NewBoard(cfg *BoardConfig) (*Board, error) {
	if err := ValidateBoard(cfg); err != nil {
		return nil, err
	}

	b := &Board{
		name:      cfg.Name,
		loop:      append([]Cell(nil), cfg.Loop...),
		loopIndex: make(map[Cell]int, len(cfg.Loop)),
		entries:   make(map[Color]int, len(Colors)),
		homeLanes: make(map[Color][]Cell, len(Colors)),
		safe:      make(map[Cell]bool, len(cfg.Safe)),
	}
	for i, cell := range b.loop {
		b.loopIndex[cell] = i
	}
	for _, color := range Colors {
		b.entries[color] = b.loopIndex[cfg.Entries[color]]
		b.homeLanes[color] = append([]Cell(nil), cfg.HomeLanes[color]...)
	}
	for _, cell := range cfg.Safe {
		b.safe[cell] = true
	}
	return b, nil
}

// DefaultBoard returns the classic 68-cell layout
func DefaultBoard() *Board {
	b, err := NewBoard(ClassicBoardConfig())
	if err != nil {
		panic(fmt.Sprintf("classic board is invalid: %v", err))
	}
	return b
}

// Name returns the layout name
func (b *Board) Name() string {
	return b.name
}

// LoopLength returns the number of cells in the shared loop
func (b *Board) LoopLength() int {
	return len(b.loop)
}

// CellAtLoopIndex returns the cell at loop index i
func (b *Board) CellAtLoopIndex(i int) Cell {
	return b.loop[i]
}

// CellAtHomeIndex returns cell i of color's home lane
func (b *Board) CellAtHomeIndex(color Color, i int) Cell {
	return b.homeLanes[color][i]
}

// IsSafe reports whether pieces on cell are immune to capture
func (b *Board) IsSafe(cell Cell) bool {
	return b.safe[cell]
}

// EntryIndex returns the loop index where color's released pieces start
func (b *Board) EntryIndex(color Color) int {
	return b.entries[color]
}

// HomeLaneLength returns the length of color's home lane
func (b *Board) HomeLaneLength(color Color) int {
	return len(b.homeLanes[color])
}

// CellOf resolves a location to its grid cell. Jail has no cell.
func (b *Board) CellOf(loc Location) (Cell, bool) {
	switch loc.Zone {
	case OnLoop:
		return b.CellAtLoopIndex(loc.Index), true
	case OnHomeLane:
		return b.CellAtHomeIndex(loc.Color, loc.Index), true
	case Finished:
		return b.CellAtHomeIndex(loc.Color, b.HomeLaneLength(loc.Color)-1), true
	}
	return Cell{}, false
}

// Config returns a copy of the layout as a BoardConfig
func (b *Board) Config() *BoardConfig {
	cfg := &BoardConfig{
		Name:      b.name,
		Loop:      append([]Cell(nil), b.loop...),
		Entries:   make(map[Color]Cell, len(b.entries)),
		HomeLanes: make(map[Color][]Cell, len(b.homeLanes)),
	}
	for color, idx := range b.entries {
		cfg.Entries[color] = b.loop[idx]
	}
	for color, lane := range b.homeLanes {
		cfg.HomeLanes[color] = append([]Cell(nil), lane...)
	}
	for _, cell := range b.loop {
		if b.safe[cell] {
			cfg.Safe = append(cfg.Safe, cell)
		}
	}
	return cfg
}
