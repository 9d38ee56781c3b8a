package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/wricardo/parchis/game/config"
	"github.com/wricardo/parchis/game/engine"
)

// MockCatalog implements BoardCatalog for testing
type MockCatalog struct {
	ListBoardsFunc func() ([]*config.BoardInfo, error)
	LoadBoardFunc  func(name string) (*engine.BoardConfig, error)
}

func (m *MockCatalog) ListBoards() ([]*config.BoardInfo, error) {
	if m.ListBoardsFunc != nil {
		return m.ListBoardsFunc()
	}
	return []*config.BoardInfo{{ID: "classic", Name: "classic", LoopLength: 68, BuiltIn: true}}, nil
}

func (m *MockCatalog) LoadBoard(name string) (*engine.BoardConfig, error) {
	if m.LoadBoardFunc != nil {
		return m.LoadBoardFunc(name)
	}
	return engine.ClassicBoardConfig(), nil
}

type fixedCount int

func (c fixedCount) Count() int { return int(c) }

func newTestServer(t *testing.T, catalog BoardCatalog) (*Server, *engine.Game) {
	t.Helper()
	game := engine.NewGameWithDefaults()
	if _, err := game.AddPlayer(uuid.New(), "ana", engine.Red); err != nil {
		t.Fatalf("Failed to add player: %v", err)
	}
	srv := NewServer(Options{
		Game:        game,
		Boards:      catalog,
		Connections: fixedCount(3),
		WebSocket: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		},
	})
	return srv, game
}

func get(t *testing.T, srv http.Handler, path string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("Failed to decode %s response: %v", path, err)
		}
	}
	return w
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &MockCatalog{})

	var resp map[string]interface{}
	w := get(t, srv, "/api/health", &resp)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", resp["status"])
	}
	if resp["phase"] != string(engine.AwaitingPlayers) {
		t.Errorf("Expected awaiting_players, got %v", resp["phase"])
	}
	if resp["players"] != float64(1) || resp["connections"] != float64(3) {
		t.Errorf("Unexpected counts %v %v", resp["players"], resp["connections"])
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}
}

func TestHandleGetState(t *testing.T) {
	srv, game := newTestServer(t, &MockCatalog{})
	if _, err := game.AddPlayer(uuid.New(), "bo", engine.Blue); err != nil {
		t.Fatal(err)
	}
	if err := game.Start(); err != nil {
		t.Fatal(err)
	}

	var snap engine.Snapshot
	w := get(t, srv, "/api/state", &snap)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if snap.Phase != engine.InProgress || snap.CurrentTurn != engine.Red {
		t.Errorf("Unexpected phase %s turn %s", snap.Phase, snap.CurrentTurn)
	}
	if len(snap.Players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(snap.Players))
	}
	for _, piece := range snap.Players[0].Pieces {
		if piece.Location.Zone != engine.Jailed {
			t.Errorf("Expected jailed piece, got %v", piece.Location.Zone)
		}
	}
}

func TestHandleGetBoard(t *testing.T) {
	srv, _ := newTestServer(t, &MockCatalog{})

	var board boardInfo
	w := get(t, srv, "/api/board", &board)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if board.Name != "classic" || board.LoopLength != 68 || len(board.Loop) != 68 {
		t.Errorf("Unexpected board %s with %d cells", board.Name, board.LoopLength)
	}
	if board.Entries[engine.Blue] != 17 {
		t.Errorf("Expected blue entry 17, got %d", board.Entries[engine.Blue])
	}
	if board.EntryCells[engine.Green] != (engine.Cell{Row: 10, Col: 17}) {
		t.Errorf("Unexpected green entry cell %v", board.EntryCells[engine.Green])
	}
	if len(board.SafeIndices) != 22 {
		t.Errorf("Expected 22 safe cells, got %d", len(board.SafeIndices))
	}
	if lane := board.HomeLanes[engine.Red]; len(lane) != 8 || lane[7] != (engine.Cell{Row: 8, Col: 8}) {
		t.Errorf("Unexpected red lane %v", lane)
	}
}

func TestHandleListBoards(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv, _ := newTestServer(t, &MockCatalog{})

		var resp struct {
			Count  int                 `json:"count"`
			Active string              `json:"active"`
			Boards []*config.BoardInfo `json:"boards"`
		}
		w := get(t, srv, "/api/boards", &resp)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if resp.Count != 1 || resp.Active != "classic" || resp.Boards[0].ID != "classic" {
			t.Errorf("Unexpected response %+v", resp)
		}
	})

	t.Run("catalog error", func(t *testing.T) {
		srv, _ := newTestServer(t, &MockCatalog{
			ListBoardsFunc: func() ([]*config.BoardInfo, error) {
				return nil, errors.New("disk on fire")
			},
		})
		w := get(t, srv, "/api/boards", nil)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})

	t.Run("no catalog", func(t *testing.T) {
		srv, _ := newTestServer(t, nil)
		w := get(t, srv, "/api/boards", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestHandleGetBoardLayout(t *testing.T) {
	catalog := &MockCatalog{
		LoadBoardFunc: func(name string) (*engine.BoardConfig, error) {
			switch name {
			case "classic":
				return engine.ClassicBoardConfig(), nil
			case "broken":
				return nil, config.ErrInvalidBoard
			}
			return nil, config.ErrBoardNotFound
		},
	}
	srv, _ := newTestServer(t, catalog)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/boards/classic", http.StatusOK},
		{"/api/boards/broken", http.StatusUnprocessableEntity},
		{"/api/boards/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var resp map[string]interface{}
			w := get(t, srv, tt.path, &resp)
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, w.Code)
			}
			if tt.status == http.StatusOK && resp["name"] != "classic" {
				t.Errorf("Expected classic layout, got %v", resp["name"])
			} else if tt.status != http.StatusOK && resp["error"] == nil {
				t.Error("Expected error message")
			}
		})
	}
}

func TestHandleGetRules(t *testing.T) {
	srv, _ := newTestServer(t, &MockCatalog{})

	var rules rulesInfo
	w := get(t, srv, "/api/rules", &rules)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if rules.MinPlayers != 2 || rules.MaxPlayers != 4 || rules.DoublesPenalty != 3 {
		t.Errorf("Unexpected rules %+v", rules.Rules)
	}
	if rules.Pieces != 4 || rules.HomeLane != 8 || rules.LoopLength != 68 {
		t.Errorf("Unexpected board rules %+v", rules)
	}
	if len(rules.Description) == 0 {
		t.Error("Expected rule description")
	}
}

func TestWebSocketRoute(t *testing.T) {
	srv, _ := newTestServer(t, &MockCatalog{})

	w := get(t, srv, "/ws", nil)
	if w.Code != http.StatusTeapot {
		t.Errorf("Expected /ws to reach the WebSocket handler, got %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &MockCatalog{})

	for _, path := range []string{"/api/state", "/api/health", "/api/boards/classic", "/api/rules"} {
		req := httptest.NewRequest("POST", path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: expected status 405, got %d", path, w.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["error"] == "" {
			t.Errorf("POST %s: expected JSON error body, got %q", path, w.Body.String())
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, &MockCatalog{})

	req := httptest.NewRequest("GET", "/api/nope", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
