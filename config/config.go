// Package config holds the tunable limits and server-level settings for the
// CAH server. Absolute limits defined here exist only to keep values from
// being outright nonsensical (zero think time would spinlock a game). The
// per-game defaults are constants too; the config file only covers the
// server-level settings in ServerConfig.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Absolute limits. Exceeding these makes no sense regardless of deployment.
const (
	MinThinkTime           = 5
	MaxThinkTime           = 180
	MinRoundEndTime        = 3
	MaxRoundEndTime        = 60
	MinIdleRounds          = 1
	MaxIdleRounds          = 10
	MaxBlankCards          = 50
	MinPlayerLimit         = 3
	MaxPlayerLimit         = 100
	MaxPointLimit          = 100
	MaxPasswordLen         = 64
	MaxGameTitleLen        = 100
	MaxBlankCardTextLength = 100
	HandSize               = 10
	GameCodeAlphabet       = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	GameCodeLength         = 5

	DisconnectKickTime   = 60  // seconds a user may be disconnected while in a game before being kicked
	DisconnectForgetTime = 300 // seconds a user may be disconnected before being forgotten entirely
)

// Defaults applied to a freshly created game's options.
const (
	DefaultThinkTime    = 60
	DefaultRoundEndTime = 8
	DefaultIdleRounds   = 2
	DefaultBlankCards   = 5
	DefaultPlayerLimit  = 20
	DefaultPointLimit   = 10
	DefaultGameTitle    = "Game"
	DefaultPassword     = ""
	NameMinLength       = 3
	NameMaxLength       = 32
)

// NameRegexCharacters lists the code points allowed in a user name, besides
// single interior spaces.
const NameRegexCharacters = `A-Za-z0-9_\- `

// ServerConfig is the process-level configuration: network binding and the
// UI protocol version clients must present at handshake.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	UIVersion string `yaml:"ui_version"`

	// CardPackFile points at the read-only card-pack catalog loaded at boot.
	CardPackFile string `yaml:"card_pack_file"`

	EnableCORS bool `yaml:"enable_cors"`
}

// DefaultServerConfig returns the built-in defaults, overridden piecewise by
// LoadServerConfig and then by environment variables.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		UIVersion:    "1",
		CardPackFile: "cardcast.yaml",
		EnableCORS:   true,
	}
}

// LoadServerConfig reads a YAML config file, falling back silently to
// defaults if the file does not exist, then applies environment overrides.
// Environment variables always win, matching the precedence the teacher's
// env-only loader used.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *ServerConfig) {
	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("UI_VERSION"); v != "" {
		cfg.UIVersion = v
	}
	if f := os.Getenv("CARD_PACK_FILE"); f != "" {
		cfg.CardPackFile = f
	}
	if cors := os.Getenv("ENABLE_CORS"); cors == "false" {
		cfg.EnableCORS = false
	}
}
