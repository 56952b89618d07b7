package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `validate:"required"`
	HTTPAddr    string `validate:"required"`

	DirectoryURL   string `validate:"required,url"`
	DirectoryToken string `validate:"required"`
	MailboxURL     string `validate:"required,url"`
	MailboxToken   string `validate:"required"`

	TagName        string `validate:"required"`
	TagDescription string
	ControlGroupID string `validate:"required"`
	SeedMemberID   string `validate:"required"`
	TeamFilter     string `validate:"required"`

	// SyncInterval enables the background sync loop when positive.
	SyncInterval    time.Duration `validate:"min=0"`
	SyncParallelism int           `validate:"min=1,max=64"`
	DirectoryRPS    float64       `validate:"min=0"`

	TagCreateSettle time.Duration `validate:"gt=0"`
	TagDeleteSettle time.Duration `validate:"gt=0"`
	SettleTimeout   time.Duration `validate:"gt=0"`

	EventWorkers int `validate:"min=1,max=32"`
}

func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		HTTPAddr:       envDefault("HTTP_ADDR", ":8080"),
		DirectoryURL:   os.Getenv("DIRECTORY_URL"),
		DirectoryToken: os.Getenv("DIRECTORY_TOKEN"),
		MailboxURL:     os.Getenv("MAILBOX_URL"),
		MailboxToken:   os.Getenv("MAILBOX_TOKEN"),
		TagName:        envDefault("TAG_NAME", "Managed Staff"),
		TagDescription: envDefault("TAG_DESCRIPTION", "Membership managed automatically; manual changes are overwritten."),
		ControlGroupID: os.Getenv("CONTROL_GROUP_ID"),
		SeedMemberID:   os.Getenv("SEED_MEMBER_ID"),
		TeamFilter:     envDefault("TEAM_FILTER", "[managed]"),
	}

	var err error
	if cfg.SyncInterval, err = envDuration("SYNC_INTERVAL", 0); err != nil {
		return Config{}, err
	}
	if cfg.SyncParallelism, err = envInt("SYNC_PARALLELISM", 1); err != nil {
		return Config{}, err
	}
	if cfg.DirectoryRPS, err = envFloat("DIRECTORY_RPS", 10); err != nil {
		return Config{}, err
	}
	if cfg.TagCreateSettle, err = envDuration("TAG_CREATE_SETTLE", 200*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.TagDeleteSettle, err = envDuration("TAG_DELETE_SETTLE", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SettleTimeout, err = envDuration("SETTLE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.EventWorkers, err = envInt("EVENT_WORKERS", 4); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func envDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func envFloat(name string, fallback float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}
