package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/sto/internal/storage/postgres"
)

type config struct {
	direction string
	steps     int
	dsn       string
}

// readConfig собирает настройки из флагов с фолбэком DSN на окружение.
func readConfig() (config, error) {
	var cfg config
	flag.StringVar(&cfg.direction, "direction", "up", "migration direction: up|down|status")
	flag.IntVar(&cfg.steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&cfg.dsn, "dsn", "", "PostgreSQL DSN (fallback: STO_POSTGRES_DSN)")
	flag.Parse()

	cfg.direction = strings.ToLower(strings.TrimSpace(cfg.direction))
	if strings.TrimSpace(cfg.dsn) == "" {
		cfg.dsn = strings.TrimSpace(os.Getenv("STO_POSTGRES_DSN"))
	}
	if cfg.dsn == "" {
		return config{}, fmt.Errorf("STO_POSTGRES_DSN (or -dsn) is required")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config) error {
	store, err := postgres.Open(ctx, cfg.dsn)
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer store.Close()

	switch cfg.direction {
	case "up":
		if err := store.MigrateUp(ctx, cfg.steps); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if err := store.MigrateDown(ctx, cfg.steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case "status":
		// Только отчёт ниже.
	default:
		return fmt.Errorf("unsupported direction %q (use up|down|status)", cfg.direction)
	}

	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	fmt.Printf("%s ok: version=%d applied=%d\n", cfg.direction, version, count)
	return nil
}

func main() {
	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
