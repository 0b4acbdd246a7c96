package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// MigrationsTable records the applied schema version of the treasury
const MigrationsTable = "treasury_schema_migrations"

// Source selects where migration files are read from. FS wins over Path.
type Source struct {
	FS   fs.FS
	Path string
}

func (s Source) open() (string, source.Driver, error) {
	if s.FS != nil {
		d, err := iofs.New(s.FS, ".")
		if err != nil {
			return "", nil, fmt.Errorf("failed to open embedded migrations: %w", err)
		}
		return "iofs", d, nil
	}
	if s.Path == "" {
		return "", nil, errors.New("no migration source configured")
	}
	return "file://" + s.Path, nil, nil
}

// Status describes the schema of the connected database
type Status struct {
	Version uint
	Dirty   bool
	Latest  uint
	Pending int
}

// Migrator applies the treasury schema migrations to PostgreSQL
type Migrator struct {
	migrate  *migrate.Migrate
	versions []uint
	logger   *zap.Logger
}

// New creates a Migrator over an open PostgreSQL connection
func New(db *sql.DB, src Source, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceURL, sourceDriver, err := src.open()
	if err != nil {
		return nil, err
	}
	var m *migrate.Migrate
	if sourceDriver != nil {
		m, err = migrate.NewWithInstance(sourceURL, sourceDriver, "postgres", driver)
	} else {
		m, err = migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	versions, err := sourceVersions(src)
	if err != nil {
		return nil, err
	}
	return &Migrator{migrate: m, versions: versions, logger: logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	m.logger.Info("Running migrations up")
	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Schema is up to date")
			return nil
		}
		return fmt.Errorf("migration up failed: %w", err)
	}
	return m.logVersion("Migrations completed")
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	m.logger.Warn("Rolling back all treasury migrations")
	if err := m.migrate.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("migration down failed: %w", err)
	}
	m.logger.Info("All migrations rolled back")
	return nil
}

// Steps applies n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	m.logger.Info("Running migration steps", zap.Int("steps", n))
	if err := m.migrate.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return m.logVersion("Migration steps completed")
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	m.logger.Info("Migrating to version", zap.Uint("target_version", version))
	if err := m.migrate.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration to version %d failed: %w", version, err)
	}
	return m.logVersion("Migration to version completed")
}

// Status reports the applied version against the migrations available
func (m *Migrator) Status() (Status, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	return buildStatus(version, dirty, m.versions), nil
}

// Force records version as applied without running anything. It clears the
// dirty flag left by a failed migration.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and the database driver
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

func (m *Migrator) logVersion(msg string) error {
	status, err := m.Status()
	if err != nil {
		return err
	}
	m.logger.Info(msg,
		zap.Uint("version", status.Version),
		zap.Bool("dirty", status.Dirty),
		zap.Int("pending", status.Pending),
	)
	return nil
}

func buildStatus(version uint, dirty bool, available []uint) Status {
	s := Status{Version: version, Dirty: dirty}
	for _, v := range available {
		if v > s.Latest {
			s.Latest = v
		}
		if v > version {
			s.Pending++
		}
	}
	return s
}

func sourceVersions(src Source) ([]uint, error) {
	var (
		files []MigrationFile
		err   error
	)
	if src.FS != nil {
		files, err = ListMigrationsFS(src.FS)
	} else {
		files, err = ListMigrations(src.Path)
	}
	if err != nil {
		return nil, err
	}
	versions := make([]uint, 0, len(files))
	for _, f := range files {
		versions = append(versions, f.Version)
	}
	return versions, nil
}
