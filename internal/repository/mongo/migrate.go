package mongo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/taskboard/internal/config"
)

// RunMigrations applies the JSON command migrations found at cfg.MigrationsPath
func RunMigrations(cfg config.DatabaseConfig) error {
	dbURL, err := migrationURL(cfg.URI, cfg.Name)
	if err != nil {
		return err
	}

	m, err := migrate.New(cfg.MigrationsPath, dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("database migration: no changes")
			return nil
		}
		return fmt.Errorf("failed to run migrate up: %w", err)
	}

	log.Info().Msg("database migration: success")
	return nil
}

// migrationURL points the connection string at the application database
func migrationURL(uri, name string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid mongo uri: %w", err)
	}
	if name != "" {
		u.Path = "/" + strings.TrimPrefix(name, "/")
	}
	return u.String(), nil
}
