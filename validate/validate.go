// Command validate checks the board layout JSON files in the ../boards
// directory (or the directory given as the first argument). It checks:
//   - JSON structure and the engine's layout rules (entries, lanes, safe cells)
//   - Loop continuity: every loop cell touches the next one, wrapping around
//   - Home lane continuity from the loop up to the shared center
//   - Home lanes never overlap the loop or each other before the center
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/parchis/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateBoard loads and validates a single board file
func validateBoard(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var cfg engine.BoardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateBoard(&cfg); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "board validation: "))
		return result
	}

	checkLoop(&cfg, &result)
	checkLanes(&cfg, &result)

	if result.Valid {
		board, err := engine.NewBoard(&cfg)
		if err != nil {
			result.fail("Failed to build board: %v", err)
			return result
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", cfg.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Loop: %d cells", board.LoopLength()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Safe cells: %d", len(cfg.Safe)))
		for _, color := range engine.Colors {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ %s enters at loop index %d", color, board.EntryIndex(color)))
		}
	}

	return result
}

func adjacent(a, b engine.Cell) bool {
	dr, dc := a.Row-b.Row, a.Col-b.Col
	return dr*dr+dc*dc == 1
}

// checkLoop ensures consecutive loop cells are orthogonal neighbours
func checkLoop(cfg *engine.BoardConfig, result *ValidationResult) {
	n := len(cfg.Loop)
	breaks := 0
	for i, cell := range cfg.Loop {
		next := cfg.Loop[(i+1)%n]
		if !adjacent(cell, next) {
			breaks++
			result.fail("Loop break between index %d %s and %d %s", i, cell, (i+1)%n, next)
		}
	}
	if breaks == 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Continuity: loop of %d cells is closed", n))
	}
}

// checkLanes ensures each home lane leaves the loop from a neighbouring
// cell and walks cell by cell up to the center. The center spans several
// grid cells, so the final step into it may jump.
func checkLanes(cfg *engine.BoardConfig, result *ValidationResult) {
	onLoop := make(map[engine.Cell]bool, len(cfg.Loop))
	for _, cell := range cfg.Loop {
		onLoop[cell] = true
	}

	owner := make(map[engine.Cell]engine.Color)
	for _, color := range engine.Colors {
		lane := cfg.HomeLanes[color]
		center := lane[len(lane)-1]

		touchesLoop := false
		for _, cell := range cfg.Loop {
			if adjacent(cell, lane[0]) {
				touchesLoop = true
				break
			}
		}
		if !touchesLoop {
			result.fail("%s home lane starts at %s, away from the loop", color, lane[0])
		}

		for i, cell := range lane {
			if onLoop[cell] {
				result.fail("%s home lane cell %d %s lies on the loop", color, i, cell)
			}
			if cell == center {
				continue
			}
			if i > 0 && !adjacent(lane[i-1], cell) {
				result.fail("%s home lane break between %s and %s", color, lane[i-1], cell)
			}
			if other, taken := owner[cell]; taken {
				result.fail("%s and %s home lanes share %s", other, color, cell)
			}
			owner[cell] = color
		}
	}
}

// main scans the boards directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	boardsDir := "../boards"
	if len(os.Args) > 1 {
		boardsDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(boardsDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding board files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No board files in %s\n", boardsDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateBoard(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All boards are valid!")
	} else {
		fmt.Println("❌ Some boards have errors")
		os.Exit(1)
	}
}
