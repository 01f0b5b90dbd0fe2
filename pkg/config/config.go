package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT"`
		Host    string `env:"POSTGRES_HOST"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Mastodon struct {
		Instance    string `env:"MASTODON_INSTANCE" env-default:"mastodon.social"`
		AccountID   string `env:"MASTODON_ACCOUNT_ID"`
		AccessToken string `env:"MASTODON_ACCESS_TOKEN"`
	}
	Bluesky struct {
		Service     string `env:"BLUESKY_SERVICE" env-default:"https://bsky.social"`
		AccountDID  string `env:"BLUESKY_ACCOUNT_DID"`
		AccessToken string `env:"BLUESKY_ACCESS_TOKEN"`
	}
	Engine struct {
		RefreshInterval time.Duration `env:"ENGINE_REFRESH_INTERVAL" env-default:"2m"`
		PageSize        int           `env:"ENGINE_PAGE_SIZE" env-default:"40"`
		MaxPages        int           `env:"ENGINE_MAX_PAGES" env-default:"3"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

// GetDSN returns the postgres connection string used by the migration tooling.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode,
	)
}
