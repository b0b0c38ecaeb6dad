// Package migrate applies the embedded SQL migrations with golang-migrate.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"

	"rederly/client/internal/db"
	"rederly/client/internal/logging"
)

// Directions accepted by Run.
const (
	Up   = "up"
	Down = "down"
)

// ErrNoChange is returned when there is nothing to apply.
var ErrNoChange = migrate.ErrNoChange

// Run applies migrations against dsn in direction (Up or Down). Returns ErrNoChange when the
// schema is already at the target version.
func Run(dsn, direction string, logger logrus.FieldLogger) error {
	if dsn == "" {
		return errors.New("migrate: DATABASE_URL is not set")
	}
	if direction != Up && direction != Down {
		return fmt.Errorf("migrate: direction must be up or down, got %q", direction)
	}
	log := logging.Component(logger, "migrate")

	m, err := open(dsn)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if direction == Up {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.WithField("direction", direction).Info("schema already current")
		}
		return err
	}
	if v, dirty, verr := m.Version(); verr == nil {
		log.WithFields(logrus.Fields{"direction": direction, "version": v, "dirty": dirty}).Info("migrations applied")
	}
	return nil
}

func open(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return m, nil
}
