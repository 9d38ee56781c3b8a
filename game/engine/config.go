package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// BoardConfig is the JSON description of a board layout
type BoardConfig struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Loop        []Cell           `json:"loop"`
	Entries     map[Color]Cell   `json:"entries"`
	HomeLanes   map[Color][]Cell `json:"home_lanes"`
	Safe        []Cell           `json:"safe"`
}

// Rules holds the tunable game rules
type Rules struct {
	MinPlayers     int `json:"min_players"`
	MaxPlayers     int `json:"max_players"`
	DoublesPenalty int `json:"doubles_penalty"`
}

// DefaultRules returns the standard two-to-four player rules
func DefaultRules() Rules {
	return Rules{
		MinPlayers:     DefaultMinPlayers,
		MaxPlayers:     MaxPlayers,
		DoublesPenalty: DoublesPenalty,
	}
}

// ValidateRules checks that the rules describe a playable game
func ValidateRules(r Rules) error {
	if r.MaxPlayers < 2 || r.MaxPlayers > MaxPlayers {
		return fmt.Errorf("rules validation: max_players must be between 2 and %d, got %d", MaxPlayers, r.MaxPlayers)
	}
	if r.MinPlayers < 2 || r.MinPlayers > r.MaxPlayers {
		return fmt.Errorf("rules validation: min_players must be between 2 and max_players (%d), got %d", r.MaxPlayers, r.MinPlayers)
	}
	if r.DoublesPenalty < 1 {
		return fmt.Errorf("rules validation: doubles_penalty must be positive, got %d", r.DoublesPenalty)
	}
	return nil
}

// ValidateBoard checks a layout for consistency
func ValidateBoard(cfg *BoardConfig) error {
	if cfg == nil {
		return fmt.Errorf("board validation: config is nil")
	}
	if cfg.Name == "" {
		return fmt.Errorf("board validation: name is required")
	}
	if len(cfg.Loop) == 0 {
		return fmt.Errorf("board validation: loop is empty")
	}

	onLoop := make(map[Cell]bool, len(cfg.Loop))
	for i, cell := range cfg.Loop {
		if onLoop[cell] {
			return fmt.Errorf("board validation: loop cell %s repeated at index %d", cell, i)
		}
		onLoop[cell] = true
	}

	safe := make(map[Cell]bool, len(cfg.Safe))
	for _, cell := range cfg.Safe {
		if !onLoop[cell] {
			return fmt.Errorf("board validation: safe cell %s is not on the loop", cell)
		}
		safe[cell] = true
	}

	var center *Cell
	entryCells := make(map[Cell]Color, len(Colors))
	for _, color := range Colors {
		entry, ok := cfg.Entries[color]
		if !ok {
			return fmt.Errorf("board validation: missing entry for %s", color)
		}
		if !onLoop[entry] {
			return fmt.Errorf("board validation: %s entry %s is not on the loop", color, entry)
		}
		if !safe[entry] {
			return fmt.Errorf("board validation: %s entry %s must be a safe cell", color, entry)
		}
		if other, dup := entryCells[entry]; dup {
			return fmt.Errorf("board validation: %s and %s share entry %s", other, color, entry)
		}
		entryCells[entry] = color

		lane := cfg.HomeLanes[color]
		if len(lane) != HomeLaneLength {
			return fmt.Errorf("board validation: %s home lane must have %d cells, got %d", color, HomeLaneLength, len(lane))
		}
		last := lane[len(lane)-1]
		if center == nil {
			center = &last
		} else if *center != last {
			return fmt.Errorf("board validation: %s home lane ends at %s, expected shared center %s", color, last, *center)
		}
	}

	for key := range cfg.Entries {
		if !key.Valid() {
			return fmt.Errorf("board validation: unknown color %q in entries", key)
		}
	}
	for key := range cfg.HomeLanes {
		if !key.Valid() {
			return fmt.Errorf("board validation: unknown color %q in home_lanes", key)
		}
	}

	return nil
}

// LoadBoardFile reads and validates a layout from a JSON file
func LoadBoardFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}

	var cfg BoardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse board file: %w", err)
	}

	if err := ValidateBoard(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ClassicBoardConfig returns the classic layout: a 68-cell loop around
// an 18x18 grid with the shared center at (8,8).
func ClassicBoardConfig() *BoardConfig {
	var loop []Cell
	add := func(row, col int) { loop = append(loop, Cell{row, col}) }
	for c := 0; c <= 7; c++ {
		add(7, c)
	}
	for r := 6; r >= 0; r-- {
		add(r, 7)
	}
	for c := 8; c <= 10; c++ {
		add(0, c)
	}
	for r := 1; r <= 7; r++ {
		add(r, 10)
	}
	for c := 11; c <= 17; c++ {
		add(7, c)
	}
	for r := 8; r <= 10; r++ {
		add(r, 17)
	}
	for c := 16; c >= 10; c-- {
		add(10, c)
	}
	for r := 11; r <= 17; r++ {
		add(r, 10)
	}
	for c := 9; c >= 7; c-- {
		add(17, c)
	}
	for r := 16; r >= 10; r-- {
		add(r, 7)
	}
	for c := 6; c >= 0; c-- {
		add(10, c)
	}
	add(9, 0)
	add(8, 0)

	center := Cell{8, 8}
	lanes := map[Color][]Cell{}
	for i := 1; i <= 7; i++ {
		lanes[Red] = append(lanes[Red], Cell{8, i})
		lanes[Blue] = append(lanes[Blue], Cell{i, 8})
		lanes[Green] = append(lanes[Green], Cell{9, 17 - i})
		lanes[Yellow] = append(lanes[Yellow], Cell{17 - i, 9})
	}
	for _, color := range Colors {
		lanes[color] = append(lanes[color], center)
	}

	return &BoardConfig{
		Name:        "classic",
		Description: "Four-color cross board with a 68-cell loop",
		Loop:        loop,
		Entries: map[Color]Cell{
			Red:    {7, 0},
			Blue:   {0, 10},
			Green:  {10, 17},
			Yellow: {17, 7},
		},
		HomeLanes: lanes,
		Safe: []Cell{
			{7, 0}, {0, 7}, {0, 8}, {0, 9}, {0, 10}, {7, 10}, {7, 17}, {8, 17}, {9, 17}, {10, 17},
			{10, 10}, {10, 0}, {9, 0}, {8, 0}, {17, 7}, {17, 8}, {17, 9}, {17, 10},
			{4, 7}, {7, 13}, {10, 4}, {13, 10},
		},
	}
}
