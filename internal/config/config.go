package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Oficina"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Storage struct {
		Driver     string        `envconfig:"STORAGE_DRIVER" default:"file"`
		DataFile   string        `envconfig:"DATA_FILE" default:"oficina.json"`
		SQLitePath string        `envconfig:"SQLITE_PATH" default:"oficina.db"`
		Debounce   time.Duration `envconfig:"SAVE_DEBOUNCE" default:"1500ms"`
		Grace      time.Duration `envconfig:"LOAD_GRACE" default:"1s"`
		Timeout    time.Duration `envconfig:"SAVE_TIMEOUT" default:"30s"`
	}

	Remote struct {
		Backend  string `envconfig:"REMOTE_BACKEND" default:""`
		PageSize int    `envconfig:"REMOTE_PAGE_SIZE" default:"50"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"oficina"`
	}

	Dynamo struct {
		Table           string `envconfig:"DYNAMODB_TABLE" default:"oficina"`
		Endpoint        string `envconfig:"DYNAMODB_ENDPOINT"`
		Region          string `envconfig:"AWS_REGION" default:"us-east-1"`
		AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
		SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	}

	Export struct {
		Dir string `envconfig:"EXPORT_DIR" default:"."`
	}

	Auth struct {
		// Empty disables bearer token checks.
		Secret string `envconfig:"AUTH_SECRET"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Locator is where the document lives for the configured storage driver.
func (c *Config) Locator() string {
	if c.Storage.Driver == "sqlite" {
		return "default"
	}

	return c.Storage.DataFile
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Remote.Backend {
	case "", "memory", "postgres", "dynamodb":
	default:
		return fmt.Errorf("unknown REMOTE_BACKEND %q", c.Remote.Backend)
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
