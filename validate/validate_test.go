package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/parchis/game/engine"
)

func writeBoard(t *testing.T, cfg *engine.BoardConfig) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Failed to marshal board: %v", err)
	}
	return writeRaw(t, string(data))
}

func writeRaw(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write board: %v", err)
	}
	return path
}

func countContaining(lines []string, substr string) int {
	n := 0
	for _, l := range lines {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

func TestValidateBoard_Classic(t *testing.T) {
	path := writeBoard(t, engine.ClassicBoardConfig())

	result := validateBoard(path)
	if !result.Valid {
		t.Fatalf("Expected valid board, but got errors: %v", result.Errors)
	}
	if result.File != "board.json" {
		t.Errorf("Expected file name board.json, got %s", result.File)
	}

	for _, want := range []string{
		"✓ Name: classic",
		"✓ Loop: 68 cells",
		"✓ Safe cells: 22",
		"✓ Continuity: loop of 68 cells is closed",
		"✓ yellow enters at loop index 51",
	} {
		if countContaining(result.Errors, want) != 1 {
			t.Errorf("Expected info line %q in %v", want, result.Errors)
		}
	}
}

func TestValidateBoard_InvalidJSON(t *testing.T) {
	result := validateBoard(writeRaw(t, `{"name": "test", invalid json}`))
	if result.Valid {
		t.Fatal("Expected invalid result for malformed JSON")
	}
	if countContaining(result.Errors, "Invalid JSON") != 1 {
		t.Errorf("Expected JSON error, got %v", result.Errors)
	}
}

func TestValidateBoard_MissingFile(t *testing.T) {
	result := validateBoard(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid {
		t.Fatal("Expected invalid result for missing file")
	}
	if countContaining(result.Errors, "Failed to read file") != 1 {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateBoard_EngineRules(t *testing.T) {
	cfg := engine.ClassicBoardConfig()
	delete(cfg.Entries, engine.Blue)

	result := validateBoard(writeBoard(t, cfg))
	if result.Valid {
		t.Fatal("Expected invalid result without a blue entry")
	}
	if countContaining(result.Errors, "missing entry for blue") != 1 {
		t.Errorf("Expected missing entry error, got %v", result.Errors)
	}
}

func TestValidateBoard_LoopBreak(t *testing.T) {
	cfg := engine.ClassicBoardConfig()
	cfg.Loop[3], cfg.Loop[5] = cfg.Loop[5], cfg.Loop[3]

	result := validateBoard(writeBoard(t, cfg))
	if result.Valid {
		t.Fatal("Expected invalid result for a broken loop")
	}
	if got := countContaining(result.Errors, "Loop break"); got != 2 {
		t.Errorf("Expected 2 loop breaks, got %d: %v", got, result.Errors)
	}
}

func TestValidateBoard_LaneAwayFromLoop(t *testing.T) {
	cfg := engine.ClassicBoardConfig()
	cfg.HomeLanes[engine.Red][0] = engine.Cell{Row: 3, Col: 3}

	result := validateBoard(writeBoard(t, cfg))
	if result.Valid {
		t.Fatal("Expected invalid result for a detached lane")
	}
	if countContaining(result.Errors, "red home lane starts at (3,3), away from the loop") != 1 {
		t.Errorf("Expected detached lane error, got %v", result.Errors)
	}
	if countContaining(result.Errors, "red home lane break") != 1 {
		t.Errorf("Expected lane break error, got %v", result.Errors)
	}
}

func TestValidateBoard_LaneOnLoop(t *testing.T) {
	cfg := engine.ClassicBoardConfig()
	cfg.HomeLanes[engine.Blue][0] = engine.Cell{Row: 0, Col: 8}

	result := validateBoard(writeBoard(t, cfg))
	if result.Valid {
		t.Fatal("Expected invalid result for a lane on the loop")
	}
	if countContaining(result.Errors, "blue home lane cell 0 (0,8) lies on the loop") != 1 {
		t.Errorf("Expected lane overlap error, got %v", result.Errors)
	}
}

func TestValidateBoard_SharedLaneCell(t *testing.T) {
	cfg := engine.ClassicBoardConfig()
	cfg.HomeLanes[engine.Blue][6] = cfg.HomeLanes[engine.Red][6]

	result := validateBoard(writeBoard(t, cfg))
	if result.Valid {
		t.Fatal("Expected invalid result for shared lane cells")
	}
	if countContaining(result.Errors, "red and blue home lanes share (8,7)") != 1 {
		t.Errorf("Expected shared cell error, got %v", result.Errors)
	}
}

func TestAdjacent(t *testing.T) {
	tests := []struct {
		a, b engine.Cell
		want bool
	}{
		{engine.Cell{Row: 1, Col: 1}, engine.Cell{Row: 1, Col: 2}, true},
		{engine.Cell{Row: 1, Col: 1}, engine.Cell{Row: 0, Col: 1}, true},
		{engine.Cell{Row: 1, Col: 1}, engine.Cell{Row: 2, Col: 2}, false},
		{engine.Cell{Row: 1, Col: 1}, engine.Cell{Row: 1, Col: 1}, false},
		{engine.Cell{Row: 1, Col: 1}, engine.Cell{Row: 1, Col: 3}, false},
	}
	for _, tt := range tests {
		if got := adjacent(tt.a, tt.b); got != tt.want {
			t.Errorf("adjacent(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
