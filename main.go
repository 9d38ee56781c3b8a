// Command parchis starts the Parchís game server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, the
//     player WebSocket, an /mcp HTTP endpoint and optionally a raw TCP listener
//  2. "stdio-mcp" – runs an MCP stdio server proxying to a running server
//
// Settings come from PARCHIS_* environment variables (a .env file is loaded
// first) and flags override them. An ngrok tunnel can be enabled for easy
// external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wricardo/parchis/api"
	"github.com/wricardo/parchis/game/clocksync"
	"github.com/wricardo/parchis/game/config"
	"github.com/wricardo/parchis/game/engine"
	"github.com/wricardo/parchis/game/gateway"
	"github.com/wricardo/parchis/game/session"
	"github.com/wricardo/parchis/internal/logging"
	"github.com/wricardo/parchis/transport/mcp"
	"github.com/wricardo/parchis/transport/tcp"
	"github.com/wricardo/parchis/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Parchis Server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "parchis",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP listen host (PARCHIS_HOST)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP listen port (PARCHIS_PORT)"},
			&cli.StringFlag{Name: "tcp-addr", Usage: "raw TCP listen address, empty to disable (PARCHIS_TCP_ADDR)"},
			&cli.IntFlag{Name: "min-players", Usage: "players needed to start (PARCHIS_MIN_PLAYERS)"},
			&cli.DurationFlag{Name: "start-delay", Usage: "pause between game start and the first turn (PARCHIS_START_DELAY)"},
			&cli.DurationFlag{Name: "turn-timeout", Usage: "auto-pass a turn after this long, 0 disables (PARCHIS_TURN_TIMEOUT)"},
			&cli.DurationFlag{Name: "sync-interval", Usage: "clock sync period (PARCHIS_SYNC_INTERVAL)"},
			&cli.StringFlag{Name: "boards-dir", Usage: "directory of board layout files (PARCHIS_BOARDS_DIR)"},
			&cli.StringFlag{Name: "board", Usage: "board layout to play (PARCHIS_BOARD)"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json (PARCHIS_LOG_FORMAT)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the HTTP server through an ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the game server (default)",
				Action: runServe,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server proxying to a game server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "base URL of the game server", Sources: cli.EnvVars("PARCHIS_API_URL")},
				},
				Action: runStdioMCP,
			},
		},
	}
}

// loadConfig reads the environment and applies the flags that were set
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("tcp-addr") {
		cfg.TCPAddr = cmd.String("tcp-addr")
	}
	if cmd.IsSet("min-players") {
		cfg.MinPlayers = int(cmd.Int("min-players"))
	}
	if cmd.IsSet("start-delay") {
		cfg.StartDelay = cmd.Duration("start-delay")
	}
	if cmd.IsSet("turn-timeout") {
		cfg.TurnTimeout = cmd.Duration("turn-timeout")
	}
	if cmd.IsSet("sync-interval") {
		cfg.SyncInterval = cmd.Duration("sync-interval")
	}
	if cmd.IsSet("boards-dir") {
		cfg.BoardsDir = cmd.String("boards-dir")
	}
	if cmd.IsSet("board") {
		cfg.Board = cmd.String("board")
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = cmd.String("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// gameServer holds the wired components of one running server
type gameServer struct {
	cfg     *config.Config
	log     *logrus.Entry
	hub     *gateway.Hub
	session *session.Session
	clock   *clocksync.Coordinator
	tcp     *tcp.Server
	handler http.Handler
}

// newServer wires the session, the gateway hub, the transports and the
// HTTP surface together
func newServer(cfg *config.Config, logger *logrus.Logger) (*gameServer, error) {
	boards, err := config.NewManager(cfg.BoardsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create board manager: %w", err)
	}
	if err := boards.SetDefault(cfg.Board); err != nil {
		return nil, fmt.Errorf("failed to load board %q: %w", cfg.Board, err)
	}
	board, err := engine.NewBoard(boards.GetDefault())
	if err != nil {
		return nil, err
	}

	hub := gateway.NewHub(gateway.Options{
		Rate:   rate.Limit(cfg.MsgRate),
		Burst:  cfg.MsgBurst,
		Logger: logging.Component(logger, "gateway"),
	})

	sess, err := session.New(hub, session.Options{
		Board:       board,
		Rules:       cfg.Rules(),
		Dice:        engine.NewRandomDice(),
		StartDelay:  cfg.StartDelay,
		TurnTimeout: cfg.TurnTimeout,
		Logger:      logging.Component(logger, "session"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	hub.Handle(sess)

	clock := clocksync.New(sess, hub, clocksync.Options{
		Interval: cfg.SyncInterval,
		Timeout:  cfg.SyncTimeout,
		Logger:   logging.Component(logger, "clocksync"),
	})
	hub.HandleSync(clock)

	ws := websocket.NewServer(hub, logging.Component(logger, "websocket"))
	apiServer := api.NewServer(api.Options{
		Game:        sess,
		Boards:      boards,
		Connections: hub,
		WebSocket:   ws.ServeWS,
		Logger:      logging.Component(logger, "api"),
	})

	mcpClient := mcp.NewClient(loopbackURL(cfg))
	apiServer.Router().HandleFunc("/mcp", mcpClient.HTTPHandler())

	return &gameServer{
		cfg:     cfg,
		log:     logging.Component(logger, "main"),
		hub:     hub,
		session: sess,
		clock:   clock,
		tcp:     tcp.NewServer(hub, logging.Component(logger, "tcp")),
		handler: apiServer,
	}, nil
}

// loopbackURL is the address the in-process MCP proxy uses to reach the API
func loopbackURL(cfg *config.Config) string {
	host := cfg.Host
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(cfg.Port))
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogFormat, cmd.Bool("debug"))
	if err != nil {
		return err
	}

	srv, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.run(ctx, ngrokOptions{
		enabled: cmd.Bool("ngrok"),
		auth:    cmd.String("ngrok-auth"),
		domain:  cmd.String("ngrok-domain"),
	})
}

type ngrokOptions struct {
	enabled bool
	auth    string
	domain  string
}

// run serves until ctx is done or a listener fails
func (s *gameServer) run(ctx context.Context, tunnel ngrokOptions) error {
	addr := s.cfg.Addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var tcpListener net.Listener
	if s.cfg.TCPAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.TCPAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.cfg.TCPAddr, err)
		}
		tcpListener = ln
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithFields(logrus.Fields{
			"addr":      addr,
			"board":     s.session.Board().Name(),
			"websocket": "ws://" + addr + "/ws",
			"mcp":       "http://" + addr + "/mcp",
		}).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if tcpListener != nil {
		g.Go(func() error { return s.tcp.Serve(ctx, tcpListener) })
	}

	g.Go(func() error { return s.clock.Run(ctx) })

	if tunnel.enabled {
		g.Go(func() error {
			s.serveTunnel(ctx, tunnel)
			return nil
		})
	}

	err := g.Wait()
	s.log.Info("Server stopped")
	return err
}

// serveTunnel exposes the HTTP handler through ngrok. Failures are logged
// and do not stop the server.
func (s *gameServer) serveTunnel(ctx context.Context, opts ngrokOptions) {
	if opts.auth == "" {
		s.log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	var endpoint ngrokConfig.Tunnel
	if opts.domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.domain))
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(opts.auth))
	if err != nil {
		s.log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	url := tun.URL()
	s.log.WithFields(logrus.Fields{
		"url":       url,
		"api":       url + "/api",
		"websocket": url + "/ws",
		"mcp":       url + "/mcp",
	}).Info("Ngrok tunnel established")

	if err := http.Serve(tun, s.handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		s.log.WithError(err).Warn("Ngrok server error")
	}
	s.log.Info("Ngrok tunnel closed")
}

// runStdioMCP serves the MCP tools over stdio against a running server
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the protocol, so logs go to stderr
	logger, err := logging.New("text", cmd.Bool("debug"))
	if err != nil {
		return err
	}
	log := logging.Component(logger, "mcp")

	baseURL := cmd.String("api-url")
	probe := &http.Client{Timeout: 2 * time.Second}
	resp, err := probe.Get(baseURL + "/api/health")
	if err != nil {
		log.WithError(err).Warnf("Game server at %s is not reachable yet; tools will fail until it is", baseURL)
	} else {
		resp.Body.Close()
		log.Infof("Using game server at %s", baseURL)
	}

	client := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready")
	return server.ServeStdio(client.GetMCPServer())
}
