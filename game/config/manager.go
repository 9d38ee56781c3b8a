package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/parchis/game/engine"
)

var (
	ErrBoardNotFound = errors.New("board layout not found")
	ErrInvalidBoard  = errors.New("invalid board layout")
)

// ClassicName is the built-in layout, always available even without a
// boards directory.
const ClassicName = "classic"

// BoardInfo describes an available layout
type BoardInfo struct {
	ID          string `json:"id"`
	Filename    string `json:"filename,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LoopLength  int    `json:"loop_length"`
	SafeCells   int    `json:"safe_cells"`
	BuiltIn     bool   `json:"built_in"`
}

// Manager loads board layouts from a directory of JSON files and caches them
type Manager struct {
	boardsDir    string
	defaultBoard *engine.BoardConfig
	boards       map[string]*engine.BoardConfig
	mu           sync.RWMutex
}

// NewManager creates a layout manager. An empty or missing directory is
// allowed; only the built-in classic layout is then available.
func NewManager(boardsDir string) (*Manager, error) {
	if boardsDir != "" {
		info, err := os.Stat(boardsDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat boards directory: %w", err)
		}
		if err == nil && !info.IsDir() {
			return nil, fmt.Errorf("boards path is not a directory: %s", boardsDir)
		}
	}

	m := &Manager{
		boardsDir:    boardsDir,
		defaultBoard: engine.ClassicBoardConfig(),
		boards:       make(map[string]*engine.BoardConfig),
	}
	return m, nil
}

// LoadBoard returns the layout with the given name. Files in the boards
// directory take precedence over the built-in classic layout.
func (m *Manager) LoadBoard(name string) (*engine.BoardConfig, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrBoardNotFound, name)
	}

	m.mu.RLock()
	if cfg, ok := m.boards[name]; ok {
		m.mu.RUnlock()
		return cfg, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg, ok := m.boards[name]; ok {
		return cfg, nil
	}

	cfg, err := m.readBoard(name)
	if errors.Is(err, ErrBoardNotFound) && name == ClassicName {
		cfg, err = engine.ClassicBoardConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	m.boards[name] = cfg
	return cfg, nil
}

func (m *Manager) readBoard(name string) (*engine.BoardConfig, error) {
	if m.boardsDir == "" {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, name)
	}
	path := filepath.Join(m.boardsDir, name+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, name)
	}

	cfg, err := engine.LoadBoardFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBoard, name, err)
	}
	return cfg, nil
}

// ListBoards returns every loadable layout sorted by id. Invalid files are
// skipped.
func (m *Manager) ListBoards() ([]*BoardInfo, error) {
	seen := map[string]bool{}
	var boards []*BoardInfo

	if m.boardsDir != "" {
		entries, err := os.ReadDir(m.boardsDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read boards directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			id := strings.TrimSuffix(entry.Name(), ".json")
			cfg, err := m.LoadBoard(id)
			if err != nil {
				continue
			}
			seen[id] = true
			boards = append(boards, describe(id, entry.Name(), cfg, false))
		}
	}

	if !seen[ClassicName] {
		boards = append(boards, describe(ClassicName, "", engine.ClassicBoardConfig(), true))
	}

	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })
	return boards, nil
}

func describe(id, filename string, cfg *engine.BoardConfig, builtIn bool) *BoardInfo {
	return &BoardInfo{
		ID:          id,
		Filename:    filename,
		Name:        cfg.Name,
		Description: cfg.Description,
		LoopLength:  len(cfg.Loop),
		SafeCells:   len(cfg.Safe),
		BuiltIn:     builtIn,
	}
}

// GetDefault returns the layout new sessions use
func (m *Manager) GetDefault() *engine.BoardConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultBoard
}

// SetDefault selects the default layout by name
func (m *Manager) SetDefault(name string) error {
	cfg, err := m.LoadBoard(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultBoard = cfg
	return nil
}

// RefreshCache drops cached layouts so the next load rereads the files
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards = make(map[string]*engine.BoardConfig)
}
