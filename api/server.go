package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/parchis/game/config"
	"github.com/wricardo/parchis/game/engine"
)

// GameView is the read-only session surface the API exposes
type GameView interface {
	Snapshot() engine.Snapshot
	Board() *engine.Board
	Rules() engine.Rules
}

// BoardCatalog lists and loads board layouts
type BoardCatalog interface {
	ListBoards() ([]*config.BoardInfo, error)
	LoadBoard(name string) (*engine.BoardConfig, error)
}

// ConnectionCounter reports how many transport connections are open
type ConnectionCounter interface {
	Count() int
}

// Options wires the API to the running server
type Options struct {
	Game        GameView
	Boards      BoardCatalog
	Connections ConnectionCounter
	// WebSocket serves player connections on /ws
	WebSocket http.HandlerFunc
	Logger    *logrus.Entry
}

// Server represents the REST API server
type Server struct {
	opts    Options
	router  *mux.Router
	log     *logrus.Entry
	started time.Time
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		opts:    opts,
		router:  mux.NewRouter(),
		log:     opts.Logger.WithField("component", "api"),
		started: time.Now(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Routes sit on the root router: a PathPrefix subrouter loses the
	// method mismatch and answers 404 instead of 405.
	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/state", s.handleGetState).Methods("GET")
	s.router.HandleFunc("/api/board", s.handleGetBoard).Methods("GET")
	s.router.HandleFunc("/api/boards", s.handleListBoards).Methods("GET")
	s.router.HandleFunc("/api/boards/{name}", s.handleGetBoardLayout).Methods("GET")
	s.router.HandleFunc("/api/rules", s.handleGetRules).Methods("GET")
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if s.opts.WebSocket != nil {
		s.router.HandleFunc("/ws", s.opts.WebSocket)
	}
}

// Router exposes the mux so main can mount extra handlers such as /mcp
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.Game.Snapshot()
	resp := map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"phase":   snap.Phase,
		"players": len(snap.Players),
	}
	if s.opts.Connections != nil {
		resp["connections"] = s.opts.Connections.Count()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.opts.Game.Snapshot())
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, boardResponse(s.opts.Game.Board()))
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	if s.opts.Boards == nil {
		respondError(w, http.StatusNotFound, "board catalog not configured")
		return
	}
	boards, err := s.opts.Boards.ListBoards()
	if err != nil {
		s.log.WithError(err).Error("Failed to list boards")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(boards),
		"active": s.opts.Game.Board().Name(),
		"boards": boards,
	})
}

func (s *Server) handleGetBoardLayout(w http.ResponseWriter, r *http.Request) {
	if s.opts.Boards == nil {
		respondError(w, http.StatusNotFound, "board catalog not configured")
		return
	}
	name := mux.Vars(r)["name"]

	cfg, err := s.opts.Boards.LoadBoard(name)
	switch {
	case errors.Is(err, config.ErrBoardNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, config.ErrInvalidBoard):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rulesResponse(s.opts.Game.Rules(), s.opts.Game.Board()))
}

type boardInfo struct {
	Name        string                         `json:"name"`
	LoopLength  int                            `json:"loop_length"`
	HomeLane    int                            `json:"home_lane_length"`
	Entries     map[engine.Color]int           `json:"entries"`
	EntryCells  map[engine.Color]engine.Cell   `json:"entry_cells"`
	HomeLanes   map[engine.Color][]engine.Cell `json:"home_lanes"`
	SafeIndices []int                          `json:"safe_indices"`
	Loop        []engine.Cell                  `json:"loop"`
}

func boardResponse(b *engine.Board) boardInfo {
	info := boardInfo{
		Name:       b.Name(),
		LoopLength: b.LoopLength(),
		HomeLane:   engine.HomeLaneLength,
		Entries:    make(map[engine.Color]int, len(engine.Colors)),
		EntryCells: make(map[engine.Color]engine.Cell, len(engine.Colors)),
		HomeLanes:  make(map[engine.Color][]engine.Cell, len(engine.Colors)),
		Loop:       make([]engine.Cell, 0, b.LoopLength()),
	}
	for _, color := range engine.Colors {
		idx := b.EntryIndex(color)
		info.Entries[color] = idx
		info.EntryCells[color] = b.CellAtLoopIndex(idx)
		for i := 0; i < b.HomeLaneLength(color); i++ {
			info.HomeLanes[color] = append(info.HomeLanes[color], b.CellAtHomeIndex(color, i))
		}
	}
	for i := 0; i < b.LoopLength(); i++ {
		cell := b.CellAtLoopIndex(i)
		info.Loop = append(info.Loop, cell)
		if b.IsSafe(cell) {
			info.SafeIndices = append(info.SafeIndices, i)
		}
	}
	return info
}

type rulesInfo struct {
	engine.Rules
	Pieces      int      `json:"pieces_per_player"`
	LoopLength  int      `json:"loop_length"`
	HomeLane    int      `json:"home_lane_length"`
	Description []string `json:"description"`
}

func rulesResponse(rules engine.Rules, b *engine.Board) rulesInfo {
	return rulesInfo{
		Rules:      rules,
		Pieces:     engine.PiecesPerPlayer,
		LoopLength: b.LoopLength(),
		HomeLane:   engine.HomeLaneLength,
		Description: []string{
			"Each player has four pieces that start in jail.",
			"Roll two dice on your turn. A double releases a jailed piece to your entry cell, and must be used that way while any piece is jailed.",
			"Otherwise move one piece forward by the total of both dice.",
			"After a full lap a piece enters its home lane; it must land exactly on the last cell to finish.",
			"Landing on an unsafe loop cell sends every opponent piece there back to jail.",
			"A double lets you roll again. Too many doubles in a row sends your leading piece to jail and ends your turn.",
			"The first player to finish all four pieces wins.",
		},
	}
}
