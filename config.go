package spindecay

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

/*
Config holds the runtime settings of a Monte Carlo run. They decide how the
work is split and scheduled, never what is computed: for a fixed Seed and
ChunkSize the fidelity curve is the same for any number of Workers.
*/
type Config struct {
	Workers           int
	ChunkSize         int // repetitions per job
	Seed              uint64
	SchedulingTimeout time.Duration // zero waits for a free queue slot indefinitely
}

func NewConfig() *Config {
	return &Config{
		Workers:   runtime.NumCPU(),
		ChunkSize: 256,
		Seed:      1,
	}
}

// LoadConfig reads the runtime settings from the environment, loading .env first if present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	defaults := NewConfig()

	seed, err := strconv.ParseUint(getEnv("SPINDECAY_SEED", strconv.FormatUint(defaults.Seed, 10)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: SPINDECAY_SEED: %v", ErrInvalidConfiguration, err)
	}

	cfg := &Config{
		Workers:           getEnvAsInt("SPINDECAY_WORKERS", defaults.Workers),
		ChunkSize:         getEnvAsInt("SPINDECAY_CHUNK_SIZE", defaults.ChunkSize),
		Seed:              seed,
		SchedulingTimeout: getEnvAsDuration("SPINDECAY_SCHEDULING_TIMEOUT", defaults.SchedulingTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfiguration, c.Workers)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfiguration, c.ChunkSize)
	}
	if c.SchedulingTimeout < 0 {
		return fmt.Errorf("%w: scheduling timeout must not be negative", ErrInvalidConfiguration)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
