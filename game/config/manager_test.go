package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/parchis/game/engine"
)

func writeBoardFile(t *testing.T, dir, name string, cfg *engine.BoardConfig) {
	t.Helper()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal board: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write board file: %v", err)
	}
}

func customBoard(name string) *engine.BoardConfig {
	cfg := engine.ClassicBoardConfig()
	cfg.Name = name
	cfg.Description = "Classic with fewer safe cells"
	cfg.Safe = []engine.Cell{{Row: 7, Col: 0}, {Row: 0, Col: 10}, {Row: 10, Col: 17}, {Row: 17, Col: 7}}
	return cfg
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory is allowed", func(t *testing.T) {
		m, err := NewManager(filepath.Join(t.TempDir(), "nope"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if m.GetDefault().Name != ClassicName {
			t.Errorf("Expected classic default, got %s", m.GetDefault().Name)
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewManager(path); err == nil {
			t.Error("Expected error for non-directory path")
		}
	})
}

func TestManager_LoadBoard(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, "sparse", customBoard("sparse"))
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	invalid := customBoard("invalid")
	invalid.HomeLanes[engine.Red] = invalid.HomeLanes[engine.Red][:3]
	writeBoardFile(t, dir, "invalid", invalid)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	cfg, err := m.LoadBoard("sparse")
	if err != nil {
		t.Fatalf("Failed to load sparse: %v", err)
	}
	if len(cfg.Safe) != 4 {
		t.Errorf("Expected 4 safe cells, got %d", len(cfg.Safe))
	}

	again, _ := m.LoadBoard("sparse.json")
	if again != cfg {
		t.Error("Expected cached layout on second load")
	}

	classic, err := m.LoadBoard(ClassicName)
	if err != nil {
		t.Fatalf("Failed to load built-in classic: %v", err)
	}
	if len(classic.Loop) != 68 {
		t.Errorf("Expected 68 loop cells, got %d", len(classic.Loop))
	}

	if _, err := m.LoadBoard("missing"); !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}
	if _, err := m.LoadBoard("../sparse"); !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("Expected path names to be rejected, got %v", err)
	}
	if _, err := m.LoadBoard("broken"); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("Expected ErrInvalidBoard for broken JSON, got %v", err)
	}
	if _, err := m.LoadBoard("invalid"); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("Expected ErrInvalidBoard for short lane, got %v", err)
	}
}

func TestManager_ClassicFileOverridesBuiltIn(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, ClassicName, customBoard("classic-override"))

	m, _ := NewManager(dir)
	cfg, err := m.LoadBoard(ClassicName)
	if err != nil {
		t.Fatalf("Failed to load classic: %v", err)
	}
	if cfg.Name != "classic-override" {
		t.Errorf("Expected file layout, got %s", cfg.Name)
	}
}

func TestManager_ListBoards(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, "sparse", customBoard("sparse"))
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	m, _ := NewManager(dir)
	boards, err := m.ListBoards()
	if err != nil {
		t.Fatalf("Failed to list boards: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("Expected 2 boards, got %d", len(boards))
	}

	if boards[0].ID != ClassicName || !boards[0].BuiltIn {
		t.Errorf("Expected built-in classic first, got %+v", boards[0])
	}
	if boards[1].ID != "sparse" || boards[1].Filename != "sparse.json" {
		t.Errorf("Unexpected second board %+v", boards[1])
	}
	if boards[1].SafeCells != 4 || boards[1].LoopLength != 68 {
		t.Errorf("Unexpected board details %+v", boards[1])
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, "sparse", customBoard("sparse"))
	m, _ := NewManager(dir)

	if err := m.SetDefault("sparse"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if m.GetDefault().Name != "sparse" {
		t.Errorf("Expected sparse default, got %s", m.GetDefault().Name)
	}
	if err := m.SetDefault("missing"); err == nil {
		t.Error("Expected error for missing layout")
	}
	if m.GetDefault().Name != "sparse" {
		t.Error("Default must not change on failure")
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, "sparse", customBoard("sparse"))
	m, _ := NewManager(dir)

	first, _ := m.LoadBoard("sparse")
	writeBoardFile(t, dir, "sparse", customBoard("sparse-v2"))

	cached, _ := m.LoadBoard("sparse")
	if cached != first {
		t.Error("Expected cached layout before refresh")
	}

	m.RefreshCache()
	fresh, err := m.LoadBoard("sparse")
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Name != "sparse-v2" {
		t.Errorf("Expected reloaded layout, got %s", fresh.Name)
	}
}

func TestManager_ConcurrentLoad(t *testing.T) {
	dir := t.TempDir()
	writeBoardFile(t, dir, "sparse", customBoard("sparse"))
	m, _ := NewManager(dir)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.LoadBoard("sparse"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent load failed: %v", err)
	}
}

func TestManager_ShippedBoards(t *testing.T) {
	m, err := NewManager(filepath.Join("..", "..", "boards"))
	if err != nil {
		t.Fatal(err)
	}

	boards, err := m.ListBoards()
	if err != nil {
		t.Fatal(err)
	}
	if len(boards) != 2 {
		t.Fatalf("Expected 2 shipped boards, got %d", len(boards))
	}
	if boards[0].ID != ClassicName || boards[0].BuiltIn {
		t.Errorf("Expected classic loaded from file, got %+v", boards[0])
	}
	if boards[1].ID != "open-road" || boards[1].SafeCells != 4 {
		t.Errorf("Unexpected second board: %+v", boards[1])
	}

	cfg, err := m.LoadBoard(ClassicName)
	if err != nil {
		t.Fatal(err)
	}
	b, err := engine.NewBoard(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if b.EntryIndex(engine.Yellow) != 51 {
		t.Errorf("Expected yellow entry at 51, got %d", b.EntryIndex(engine.Yellow))
	}
}
