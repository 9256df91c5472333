package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration for the server binary.
type Config struct {
	ListenAddr string        `yaml:"listen_addr"`
	ClientDir  string        `yaml:"client_dir"`
	World      WorldConfig   `yaml:"world"`
	Auth       AuthConfig    `yaml:"auth"`
	Logging    LoggingConfig `yaml:"logging"`
}

// WorldConfig tunes the room engine. The bounds are the playable rectangle;
// they are configuration, not constants in the movement code.
type WorldConfig struct {
	XMin             int   `yaml:"x_min"`
	XMax             int   `yaml:"x_max"`
	YMin             int   `yaml:"y_min"`
	YMax             int   `yaml:"y_max"`
	Step             int   `yaml:"step"`
	MessageTTLMs     int   `yaml:"message_ttl_ms"`
	MaxMessageLength int   `yaml:"max_message_length"`
	Seed             int64 `yaml:"seed"`
}

type AuthConfig struct {
	Enabled           bool   `yaml:"enabled"`
	DBPath            string `yaml:"db_path"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

type LoggingConfig struct {
	Sinks       []string `yaml:"sinks"`
	MinSeverity string   `yaml:"min_severity"`
	JSONPath    string   `yaml:"json_path"`
}

// Defaults mirrors the stock client: a step of 10 on a 50..1316 x 550..768
// rectangle, five second bubbles.
func Defaults() Config {
	return Config{
		ListenAddr: ":8080",
		World: WorldConfig{
			XMin:             50,
			XMax:             1316,
			YMin:             550,
			YMax:             768,
			Step:             10,
			MessageTTLMs:     5000,
			MaxMessageLength: 512,
		},
		Auth: AuthConfig{
			Enabled:           true,
			DBPath:            "./data/accounts.db",
			SessionTTLMinutes: 720,
		},
		Logging: LoggingConfig{
			Sinks:       []string{"console"},
			MinSeverity: "info",
		},
	}
}

// Load reads a YAML config file, layering it over Defaults. An empty path
// returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.World.XMin > c.World.XMax {
		return fmt.Errorf("config: x_min %d exceeds x_max %d", c.World.XMin, c.World.XMax)
	}
	if c.World.YMin > c.World.YMax {
		return fmt.Errorf("config: y_min %d exceeds y_max %d", c.World.YMin, c.World.YMax)
	}
	if c.World.Step < 0 {
		return fmt.Errorf("config: negative step %d", c.World.Step)
	}
	return nil
}
