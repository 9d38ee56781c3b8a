package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/parchis/game/config"
	"github.com/wricardo/parchis/game/engine"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Parchis Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Parchis Server - MCP Interface

This is a read-only inspection client that proxies to the REST API server.
Players play over WebSocket or TCP; these tools only observe the session.

AVAILABLE TOOLS:
- game_state: Phase, turn, last roll and every piece position
- board_info: Loop length, entries, home lanes and safe cells of a board
- list_boards: Board layouts the server can load
- game_rules: Rule settings and a plain description of the rules`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current session state: phase, whose turn it is, the last roll and all piece positions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_info",
		Description: "Describe a board layout. Without a name, describes the board in play",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Layout id from list_boards (optional)",
				},
			},
		},
	}, c.handleBoardInfo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_boards",
		Description: "List the board layouts available on the server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListBoards)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the rule settings (players, doubles penalty, lane length) and a summary of the rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves JSON-RPC MCP requests posted to it
func (c *Client) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Tool handlers

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", "/api/state", nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

// boardView mirrors the /api/board response
type boardView struct {
	Name        string                         `json:"name"`
	LoopLength  int                            `json:"loop_length"`
	HomeLane    int                            `json:"home_lane_length"`
	Entries     map[engine.Color]int           `json:"entries"`
	EntryCells  map[engine.Color]engine.Cell   `json:"entry_cells"`
	HomeLanes   map[engine.Color][]engine.Cell `json:"home_lanes"`
	SafeIndices []int                          `json:"safe_indices"`
}

func (c *Client) handleBoardInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		var board boardView
		if err := c.apiCall(ctx, "GET", "/api/board", nil, &board); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatBoard(&board)), nil
	}

	var cfg engine.BoardConfig
	if err := c.apiCall(ctx, "GET", "/api/boards/"+url.PathEscape(name), nil, &cfg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBoardConfig(&cfg)), nil
}

func (c *Client) handleListBoards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count  int                 `json:"count"`
		Active string              `json:"active"`
		Boards []*config.BoardInfo `json:"boards"`
	}
	if err := c.apiCall(ctx, "GET", "/api/boards", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available boards (%d), active: %s\n", response.Count, response.Active)
	for _, board := range response.Boards {
		source := board.Filename
		if board.BuiltIn {
			source = "built-in"
		}
		fmt.Fprintf(&b, "- %s (%s): %s, %d loop cells, %d safe\n",
			board.ID, source, board.Description, board.LoopLength, board.SafeCells)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rules struct {
		MinPlayers     int      `json:"min_players"`
		MaxPlayers     int      `json:"max_players"`
		DoublesPenalty int      `json:"doubles_penalty"`
		Pieces         int      `json:"pieces_per_player"`
		LoopLength     int      `json:"loop_length"`
		HomeLane       int      `json:"home_lane_length"`
		Description    []string `json:"description"`
	}
	if err := c.apiCall(ctx, "GET", "/api/rules", nil, &rules); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("PARCHIS RULES\n\n")
	fmt.Fprintf(&b, "Players: %d to %d, %d pieces each\n", rules.MinPlayers, rules.MaxPlayers, rules.Pieces)
	fmt.Fprintf(&b, "Board: %d loop cells, home lanes of %d cells\n", rules.LoopLength, rules.HomeLane)
	fmt.Fprintf(&b, "Doubles in a row before penalty: %d\n\n", rules.DoublesPenalty)
	for i, line := range rules.Description {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Formatting

func formatSnapshot(s *engine.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Board: %s\n", s.Board)
	fmt.Fprintf(&b, "Phase: %s", s.Phase)
	if s.Pending != "" {
		fmt.Fprintf(&b, " (%s)", s.Pending)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Players: %d (min %d, max %d)\n", len(s.Players), s.MinPlayers, s.MaxPlayers)
	if s.CurrentTurn != "" {
		fmt.Fprintf(&b, "Turn: %s (turn #%d)\n", s.CurrentTurn, s.TurnSeq)
	}
	if s.LastRoll != nil {
		fmt.Fprintf(&b, "Last roll: %d + %d = %d", s.LastRoll.Die1, s.LastRoll.Die2, s.LastRoll.Total())
		if s.LastRoll.Double() {
			b.WriteString(" (double)")
		}
		b.WriteString("\n")
	}
	if s.Winner != "" {
		fmt.Fprintf(&b, "Winner: %s\n", s.Winner)
	}

	for _, p := range s.Players {
		marker := " "
		if p.Color == s.CurrentTurn {
			marker = "*"
		}
		fmt.Fprintf(&b, "\n%s %s [%s] finished %d/4", marker, p.Name, p.Color, p.Finished)
		if p.ConsecutiveDoubles > 0 {
			fmt.Fprintf(&b, ", doubles in a row %d", p.ConsecutiveDoubles)
		}
		b.WriteString("\n")
		for i, piece := range p.Pieces {
			fmt.Fprintf(&b, "    piece %d: %s", i, piece.Location)
			if piece.Cell != nil {
				fmt.Fprintf(&b, " at %s", piece.Cell)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatBoard(board *boardView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Board: %s\n", board.Name)
	fmt.Fprintf(&b, "Loop: %d cells, home lanes: %d cells\n", board.LoopLength, board.HomeLane)
	b.WriteString("Entries:\n")
	for _, color := range engine.Colors {
		fmt.Fprintf(&b, "  %-6s loop index %d at %s, lane ends at %s\n",
			color, board.Entries[color], board.EntryCells[color], laneEnd(board.HomeLanes[color]))
	}
	fmt.Fprintf(&b, "Safe loop indices (%d): %s\n", len(board.SafeIndices), joinInts(board.SafeIndices))
	return b.String()
}

func formatBoardConfig(cfg *engine.BoardConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Board: %s\n", cfg.Name)
	if cfg.Description != "" {
		fmt.Fprintf(&b, "%s\n", cfg.Description)
	}
	fmt.Fprintf(&b, "Loop: %d cells, safe cells: %d\n", len(cfg.Loop), len(cfg.Safe))
	b.WriteString("Entries:\n")
	for _, color := range engine.Colors {
		fmt.Fprintf(&b, "  %-6s at %s, lane ends at %s\n", color, cfg.Entries[color], laneEnd(cfg.HomeLanes[color]))
	}
	return b.String()
}

func laneEnd(lane []engine.Cell) string {
	if len(lane) == 0 {
		return "?"
	}
	return lane[len(lane)-1].String()
}

func joinInts(values []int) string {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
