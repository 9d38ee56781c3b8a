package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBoard(t *testing.T) {
	b := DefaultBoard()

	assert.Equal(t, "classic", b.Name())
	assert.Equal(t, 68, b.LoopLength())

	entries := map[Color]int{Red: 0, Blue: 17, Green: 34, Yellow: 51}
	for color, want := range entries {
		assert.Equal(t, want, b.EntryIndex(color), "entry of %s", color)
		assert.True(t, b.IsSafe(b.CellAtLoopIndex(want)), "entry of %s must be safe", color)
		assert.Equal(t, HomeLaneLength, b.HomeLaneLength(color))
		assert.Equal(t, Cell{8, 8}, b.CellAtHomeIndex(color, HomeLaneLength-1), "lanes share the center")
	}
}

func TestBoard_SafeCells(t *testing.T) {
	b := DefaultBoard()

	tests := []struct {
		cell Cell
		safe bool
	}{
		{Cell{7, 0}, true},
		{Cell{4, 7}, true},
		{Cell{13, 10}, true},
		{Cell{7, 5}, false},
		{Cell{10, 12}, false},
		{Cell{8, 8}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.safe, b.IsSafe(tt.cell), "cell %s", tt.cell)
	}
}

func TestBoard_CellOf(t *testing.T) {
	b := DefaultBoard()

	cell, ok := b.CellOf(LoopLocation(5))
	require.True(t, ok)
	assert.Equal(t, Cell{7, 5}, cell)

	cell, ok = b.CellOf(HomeLocation(Blue, 0))
	require.True(t, ok)
	assert.Equal(t, Cell{1, 8}, cell)

	cell, ok = b.CellOf(FinishedLocation(Green))
	require.True(t, ok)
	assert.Equal(t, Cell{8, 8}, cell)

	_, ok = b.CellOf(JailLocation())
	assert.False(t, ok)
}

func TestBoard_ConfigRoundTrip(t *testing.T) {
	b := DefaultBoard()

	rebuilt, err := NewBoard(b.Config())
	require.NoError(t, err)
	assert.Equal(t, b.LoopLength(), rebuilt.LoopLength())
	for _, color := range Colors {
		assert.Equal(t, b.EntryIndex(color), rebuilt.EntryIndex(color))
	}
}

func TestValidateBoard(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *BoardConfig)
	}{
		{"missing name", func(cfg *BoardConfig) { cfg.Name = "" }},
		{"empty loop", func(cfg *BoardConfig) { cfg.Loop = nil }},
		{"repeated loop cell", func(cfg *BoardConfig) { cfg.Loop[3] = cfg.Loop[2] }},
		{"safe cell off loop", func(cfg *BoardConfig) { cfg.Safe = append(cfg.Safe, Cell{8, 8}) }},
		{"missing entry", func(cfg *BoardConfig) { delete(cfg.Entries, Green) }},
		{"unsafe entry", func(cfg *BoardConfig) { cfg.Entries[Red] = Cell{7, 5} }},
		{"shared entry", func(cfg *BoardConfig) { cfg.Entries[Blue] = cfg.Entries[Red] }},
		{"short home lane", func(cfg *BoardConfig) { cfg.HomeLanes[Yellow] = cfg.HomeLanes[Yellow][:7] }},
		{"lanes with different centers", func(cfg *BoardConfig) {
			lane := append([]Cell(nil), cfg.HomeLanes[Red]...)
			lane[HomeLaneLength-1] = Cell{9, 9}
			cfg.HomeLanes[Red] = lane
		}},
		{"unknown color", func(cfg *BoardConfig) { cfg.HomeLanes["purple"] = cfg.HomeLanes[Red] }},
	}

	require.NoError(t, ValidateBoard(ClassicBoardConfig()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ClassicBoardConfig()
			tt.mutate(cfg)
			assert.Error(t, ValidateBoard(cfg))
		})
	}
}

func TestLoadBoardFile(t *testing.T) {
	dir := t.TempDir()

	data, err := json.Marshal(ClassicBoardConfig())
	require.NoError(t, err)
	path := filepath.Join(dir, "classic.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadBoardFile(path)
	require.NoError(t, err)
	assert.Equal(t, "classic", cfg.Name)
	assert.Len(t, cfg.Loop, 68)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name": "x", "loop": [`), 0644))
	_, err = LoadBoardFile(bad)
	assert.Error(t, err)

	_, err = LoadBoardFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestValidateRules(t *testing.T) {
	assert.NoError(t, ValidateRules(DefaultRules()))
	assert.Error(t, ValidateRules(Rules{MinPlayers: 1, MaxPlayers: 4, DoublesPenalty: 3}))
	assert.Error(t, ValidateRules(Rules{MinPlayers: 2, MaxPlayers: 5, DoublesPenalty: 3}))
	assert.Error(t, ValidateRules(Rules{MinPlayers: 3, MaxPlayers: 2, DoublesPenalty: 3}))
	assert.Error(t, ValidateRules(Rules{MinPlayers: 2, MaxPlayers: 4, DoublesPenalty: 0}))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor(" Yellow ")
	require.NoError(t, err)
	assert.Equal(t, Yellow, c)

	_, err = ParseColor("purple")
	assert.ErrorIs(t, err, ErrUnknownColor)
}

func TestZoneJSON(t *testing.T) {
	data, err := json.Marshal(HomeLocation(Red, 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"zone":"home","color":"red","index":3}`, string(data))

	var loc Location
	require.NoError(t, json.Unmarshal([]byte(`{"zone":"loop","index":12}`), &loc))
	assert.Equal(t, LoopLocation(12), loc)

	assert.Error(t, json.Unmarshal([]byte(`{"zone":"orbit"}`), &loc))
}
