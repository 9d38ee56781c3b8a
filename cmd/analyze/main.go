// Command analyze prints quick, human-readable heuristics about board
// layouts: loop size, how evenly the color entries are spaced, how safe
// cells are distributed and how far a piece can travel without shelter.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wricardo/parchis/game/config"
	"github.com/wricardo/parchis/game/engine"
)

// maxSingleMove is the largest distance one roll can cover
const maxSingleMove = 2 * engine.DieFaces

// Analysis summarizes one layout
type Analysis struct {
	Name         string
	LoopLength   int
	SafeIndices  []int
	Entries      map[engine.Color]int
	EntrySpacing []int
	// LongestUnsafe is the longest run of consecutive unsafe loop cells
	LongestUnsafe int
	// UnsafeStart is the loop index where that run begins
	UnsafeStart int
}

func main() {
	boardsDir := flag.String("boards-dir", "boards", "directory of board layout files")
	flag.Parse()

	manager, err := config.NewManager(*boardsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	boards, err := manager.ListBoards()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, info := range boards {
		fmt.Printf("\n=== Analyzing %s ===\n", info.ID)
		cfg, err := manager.LoadBoard(info.ID)
		if err != nil {
			fmt.Printf("Error loading board: %v\n", err)
			continue
		}
		board, err := engine.NewBoard(cfg)
		if err != nil {
			fmt.Printf("Error building board: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analyzeBoard(board))
	}
}

func analyzeBoard(b *engine.Board) *Analysis {
	n := b.LoopLength()
	a := &Analysis{
		Name:       b.Name(),
		LoopLength: n,
		Entries:    make(map[engine.Color]int, len(engine.Colors)),
	}

	safe := make([]bool, n)
	for i := 0; i < n; i++ {
		if b.IsSafe(b.CellAtLoopIndex(i)) {
			safe[i] = true
			a.SafeIndices = append(a.SafeIndices, i)
		}
	}

	var entries []int
	for _, color := range engine.Colors {
		idx := b.EntryIndex(color)
		a.Entries[color] = idx
		entries = append(entries, idx)
	}
	sort.Ints(entries)
	for i, idx := range entries {
		next := entries[(i+1)%len(entries)]
		a.EntrySpacing = append(a.EntrySpacing, (next-idx+n)%n)
	}

	// walk twice around so runs crossing index 0 are counted whole
	run, start := 0, 0
	for i := 0; i < 2*n && len(a.SafeIndices) > 0; i++ {
		if safe[i%n] {
			run = 0
			continue
		}
		if run == 0 {
			start = i % n
		}
		run++
		if run > a.LongestUnsafe {
			a.LongestUnsafe = run
			a.UnsafeStart = start
		}
	}
	if len(a.SafeIndices) == 0 {
		a.LongestUnsafe = n
	}
	return a
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Loop Length: %d\n", a.LoopLength)
	fmt.Fprintf(w, "Safe Cells: %d\n", len(a.SafeIndices))
	for _, color := range engine.Colors {
		fmt.Fprintf(w, "Entry %-6s: loop index %d\n", color, a.Entries[color])
	}

	even := true
	for _, gap := range a.EntrySpacing {
		if gap != a.EntrySpacing[0] {
			even = false
		}
	}
	if even {
		fmt.Fprintf(w, "✅ Entries are evenly spaced every %d cells\n", a.EntrySpacing[0])
	} else {
		fmt.Fprintf(w, "⚠️  WARNING: uneven entry spacing %v, some colors travel closer to their rivals\n", a.EntrySpacing)
	}

	fmt.Fprintf(w, "Longest unsafe stretch: %d cells starting at loop index %d\n", a.LongestUnsafe, a.UnsafeStart)
	if a.LongestUnsafe > maxSingleMove {
		fmt.Fprintf(w, "⚠️  WARNING: a piece can be stranded more than one roll (%d) away from any safe cell\n", maxSingleMove)
	} else {
		fmt.Fprintf(w, "✅ Every unsafe cell is within one roll of a safe cell\n")
	}
}
