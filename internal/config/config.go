package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type ExecutorConfig struct {
	Workers      int `toml:"workers"`
	QueueDelayMS int `toml:"queue_delay_ms"`
}

type BackendConfig struct {
	// Seed drives the fake measurement model so runs are reproducible.
	Seed int64 `toml:"seed"`
	// Noise is the readout error fraction applied on non-simulator
	// backends, in [0, 1).
	Noise float64 `toml:"noise"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Executor ExecutorConfig `toml:"executor"`
	Backend  BackendConfig  `toml:"backend"`
}

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Executor: ExecutorConfig{Workers: 4, QueueDelayMS: 50},
		Backend:  BackendConfig{Seed: 42, Noise: 0.05},
	}
}

// Load reads a TOML config file and applies environment overrides.
// A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	if addr := os.Getenv("EMULATOR_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if workers := os.Getenv("EMULATOR_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("invalid EMULATOR_WORKERS %q: %w", workers, err)
		}
		cfg.Executor.Workers = n
	}
	if seed := os.Getenv("EMULATOR_SEED"); seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid EMULATOR_SEED %q: %w", seed, err)
		}
		cfg.Backend.Seed = n
	}

	if cfg.Executor.Workers < 1 {
		return nil, fmt.Errorf("executor workers must be at least 1, got %d", cfg.Executor.Workers)
	}
	if cfg.Backend.Noise < 0 || cfg.Backend.Noise >= 1 {
		return nil, fmt.Errorf("backend noise must be in [0, 1), got %v", cfg.Backend.Noise)
	}
	return cfg, nil
}
