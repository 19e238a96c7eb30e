package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Rules are the game policy knobs. Host and minimum-player enforcement are
// deliberately configurable rather than hardcoded.
type Rules struct {
	WinScore            int  `yaml:"win_score" json:"winScore"`
	MaxTurnDice         int  `yaml:"max_turn_dice" json:"maxTurnDice"`
	DefaultFaces        int  `yaml:"default_faces" json:"defaultFaces"`
	ParenMarenThreshold int  `yaml:"paren_maren_threshold" json:"parenMarenThreshold"`
	RequireHostToStart  bool `yaml:"require_host_to_start" json:"requireHostToStart"`
	MinPlayersToStart   int  `yaml:"min_players_to_start" json:"minPlayersToStart"`
}

type Config struct {
	HTTPAddr       string  `yaml:"http_addr"`
	RoomCodeLength int     `yaml:"room_code_length"`
	WSRatePerSec   float64 `yaml:"ws_rate_per_sec"`
	WSRateBurst    int     `yaml:"ws_rate_burst"`
	Rules          Rules   `yaml:"rules"`
}

func Default() Config {
	return Config{
		HTTPAddr:       ":3000",
		RoomCodeLength: 4,
		WSRatePerSec:   20,
		WSRateBurst:    40,
		Rules: Rules{
			WinScore:            365,
			MaxTurnDice:         4,
			DefaultFaces:        6,
			ParenMarenThreshold: 4,
			RequireHostToStart:  true,
			MinPlayersToStart:   2,
		},
	}
}

// Load builds the config from defaults, an optional YAML file, and finally
// environment variables. Env wins over file, file wins over defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PM_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if data, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config.yaml: %w", err)
		}
	}

	cfg.HTTPAddr = getenvStr("HTTP_ADDR", cfg.HTTPAddr)
	cfg.RoomCodeLength = getenvInt("ROOM_CODE_LENGTH", cfg.RoomCodeLength)
	cfg.Rules.WinScore = getenvInt("WIN_SCORE", cfg.Rules.WinScore)
	cfg.Rules.MaxTurnDice = getenvInt("MAX_TURN_DICE", cfg.Rules.MaxTurnDice)
	cfg.Rules.DefaultFaces = getenvInt("DEFAULT_FACES", cfg.Rules.DefaultFaces)
	cfg.Rules.ParenMarenThreshold = getenvInt("PAREN_MAREN_THRESHOLD", cfg.Rules.ParenMarenThreshold)
	cfg.Rules.RequireHostToStart = getenvBool("REQUIRE_HOST_TO_START", cfg.Rules.RequireHostToStart)
	cfg.Rules.MinPlayersToStart = getenvInt("MIN_PLAYERS_TO_START", cfg.Rules.MinPlayersToStart)

	return cfg, nil
}

func getenvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
