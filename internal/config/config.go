package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lojhan/hashchain/internal/logging"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr            string         `toml:"addr"`
	Multicore       bool           `toml:"multicore"`
	ShutdownTimeout Duration       `toml:"shutdown_timeout"`
	Log             logging.Config `toml:"log"`
}

// Duration decodes TOML strings such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() Config {
	return Config{
		Addr:            "tcp://:6380",
		Multicore:       true,
		ShutdownTimeout: Duration{5 * time.Second},
		Log:             logging.DefaultConfig(),
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// Unknown keys are rejected so typos do not silently fall back.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if !strings.HasPrefix(c.Addr, "tcp://") && !strings.HasPrefix(c.Addr, "unix://") {
		return fmt.Errorf("%w: addr %q must start with tcp:// or unix://", ErrInvalidConfig, c.Addr)
	}
	if c.ShutdownTimeout.Duration <= 0 {
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
