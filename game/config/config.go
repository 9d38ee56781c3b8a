package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/wricardo/parchis/game/clocksync"
	"github.com/wricardo/parchis/game/engine"
	"github.com/wricardo/parchis/game/gateway"
	"github.com/wricardo/parchis/game/session"
)

// Environment variables read by Load
const (
	EnvHost         = "PARCHIS_HOST"
	EnvPort         = "PARCHIS_PORT"
	EnvTCPAddr      = "PARCHIS_TCP_ADDR"
	EnvMinPlayers   = "PARCHIS_MIN_PLAYERS"
	EnvStartDelay   = "PARCHIS_START_DELAY"
	EnvTurnTimeout  = "PARCHIS_TURN_TIMEOUT"
	EnvSyncInterval = "PARCHIS_SYNC_INTERVAL"
	EnvSyncTimeout  = "PARCHIS_SYNC_TIMEOUT"
	EnvMsgRate      = "PARCHIS_MSG_RATE"
	EnvMsgBurst     = "PARCHIS_MSG_BURST"
	EnvBoardsDir    = "PARCHIS_BOARDS_DIR"
	EnvBoard        = "PARCHIS_BOARD"
	EnvLogFormat    = "PARCHIS_LOG_FORMAT"
)

// Config holds the server settings
type Config struct {
	Host         string
	Port         int
	TCPAddr      string
	MinPlayers   int
	StartDelay   time.Duration
	TurnTimeout  time.Duration
	SyncInterval time.Duration
	SyncTimeout  time.Duration
	MsgRate      float64
	MsgBurst     int
	BoardsDir    string
	Board        string
	LogFormat    string
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		TCPAddr:      "",
		MinPlayers:   engine.DefaultMinPlayers,
		StartDelay:   session.DefaultStartDelay,
		TurnTimeout:  0,
		SyncInterval: clocksync.DefaultInterval,
		SyncTimeout:  clocksync.DefaultTimeout,
		MsgRate:      gateway.DefaultRate,
		MsgBurst:     gateway.DefaultBurst,
		BoardsDir:    "boards",
		Board:        ClassicName,
		LogFormat:    "text",
	}
}

// Load builds a Config from defaults overridden by the environment.
// getenv is usually os.Getenv.
func Load(getenv func(string) string) (*Config, error) {
	cfg := Default()
	var err error

	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		v := getenv(key)
		if v == "" || err != nil {
			return
		}
		n, perr := strconv.Atoi(v)
		if perr != nil {
			err = fmt.Errorf("%s: invalid integer %q", key, v)
			return
		}
		*dst = n
	}
	duration := func(key string, dst *time.Duration) {
		v := getenv(key)
		if v == "" || err != nil {
			return
		}
		d, perr := time.ParseDuration(v)
		if perr != nil {
			err = fmt.Errorf("%s: invalid duration %q", key, v)
			return
		}
		*dst = d
	}

	str(EnvHost, &cfg.Host)
	integer(EnvPort, &cfg.Port)
	str(EnvTCPAddr, &cfg.TCPAddr)
	integer(EnvMinPlayers, &cfg.MinPlayers)
	duration(EnvStartDelay, &cfg.StartDelay)
	duration(EnvTurnTimeout, &cfg.TurnTimeout)
	duration(EnvSyncInterval, &cfg.SyncInterval)
	duration(EnvSyncTimeout, &cfg.SyncTimeout)
	if v := getenv(EnvMsgRate); v != "" && err == nil {
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			err = fmt.Errorf("%s: invalid number %q", EnvMsgRate, v)
		}
		cfg.MsgRate = f
	}
	integer(EnvMsgBurst, &cfg.MsgBurst)
	str(EnvBoardsDir, &cfg.BoardsDir)
	str(EnvBoard, &cfg.Board)
	str(EnvLogFormat, &cfg.LogFormat)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.TCPAddr != "" {
		if _, _, err := net.SplitHostPort(c.TCPAddr); err != nil {
			return fmt.Errorf("tcp address %q: %w", c.TCPAddr, err)
		}
	}
	rules := engine.DefaultRules()
	rules.MinPlayers = c.MinPlayers
	if err := engine.ValidateRules(rules); err != nil {
		return err
	}
	if c.StartDelay < 0 {
		return fmt.Errorf("start delay must not be negative")
	}
	if c.TurnTimeout < 0 {
		return fmt.Errorf("turn timeout must not be negative")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync interval must be positive")
	}
	if c.SyncTimeout <= 0 || c.SyncTimeout >= c.SyncInterval {
		return fmt.Errorf("sync timeout must be positive and shorter than the sync interval")
	}
	if c.MsgRate <= 0 || c.MsgBurst < 1 {
		return fmt.Errorf("message rate and burst must be positive")
	}
	if c.Board == "" {
		return fmt.Errorf("board name is required")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Rules returns the engine rules for these settings
func (c *Config) Rules() engine.Rules {
	rules := engine.DefaultRules()
	rules.MinPlayers = c.MinPlayers
	return rules
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
