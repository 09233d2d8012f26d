package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/DoyleJ11/hide-and-seek/internal/session"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Env         string        `env:"HNS_ENV" envDefault:"development"`
	Addr        string        `env:"HNS_ADDR" envDefault:":8080"`
	LogLevel    string        `env:"HNS_LOG_LEVEL" envDefault:"info"`
	DatabaseURL string        `env:"HNS_DATABASE_URL"`
	MaxPlayers  int           `env:"HNS_MAX_PLAYERS" envDefault:"8"`
	JoinWindow  time.Duration `env:"HNS_JOIN_WINDOW" envDefault:"10m"`
	PickWindow  time.Duration `env:"HNS_PICK_WINDOW" envDefault:"10m"`
	Confirm     time.Duration `env:"HNS_CONFIRM_WINDOW" envDefault:"10m"`
	ReplayAfter time.Duration `env:"HNS_REPLAY_WINDOW" envDefault:"1m"`
	// Origins are extra host patterns allowed to open websockets, such as
	// "localhost:*". Same-origin requests are always accepted.
	Origins []string `env:"HNS_ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// a missing file is fine, the environment may carry everything
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Env {
	case "production", "development":
	default:
		return fmt.Errorf("%w: HNS_ENV %q", ErrInvalid, c.Env)
	}
	if c.MaxPlayers < 2 {
		return fmt.Errorf("%w: HNS_MAX_PLAYERS must be at least 2, got %d", ErrInvalid, c.MaxPlayers)
	}
	for name, d := range map[string]time.Duration{
		"HNS_JOIN_WINDOW":    c.JoinWindow,
		"HNS_PICK_WINDOW":    c.PickWindow,
		"HNS_CONFIRM_WINDOW": c.Confirm,
		"HNS_REPLAY_WINDOW":  c.ReplayAfter,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalid, name)
		}
	}
	return nil
}

func (c Config) IsProd() bool { return c.Env == "production" }

func (c Config) Windows() session.Windows {
	return session.Windows{
		Join:    c.JoinWindow,
		Pick:    c.PickWindow,
		Confirm: c.Confirm,
		Replay:  c.ReplayAfter,
	}
}
