// Package config holds server configuration: environment-driven settings
// for the process plus an optional YAML balance file that overrides the
// built-in difficulty tuning.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/meltdownclowns/server/internal/sim"
)

// Config holds tuned parameters for the server process.
type Config struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"3001"`

	// Channel buffers - larger = more memory, less blocking
	ClientSendBuffer int `env:"CLIENT_SEND_BUFFER" envDefault:"64"`

	// Room limits
	MaxRooms int `env:"MAX_ROOMS" envDefault:"100"`

	// Optional YAML balance overrides
	BalanceFile string `env:"BALANCE_FILE"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is fine; explicit environment still applies.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Balance is the YAML-tunable game balance surface. Only the keys present
// in the file override the compiled-in defaults.
type Balance struct {
	Difficulty map[int]sim.Difficulty `yaml:"difficulty"`
}

// LoadBalance parses a balance file.
func LoadBalance(path string) (*Balance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance file: %w", err)
	}

	var b Balance
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse balance file: %w", err)
	}
	return &b, nil
}

// Apply merges balance overrides into the simulation tables. Must be called
// before any session starts; running sessions read the tables on every tick.
func (b *Balance) Apply() {
	for players, d := range b.Difficulty {
		if players < sim.MinPlayers || players > sim.MaxPlayers {
			continue
		}
		sim.DifficultyScale[players] = d
	}
}
