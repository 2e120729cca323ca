package container

import (
	"context"
	"fmt"

	"hisoutlier/adapters/memory"
	"hisoutlier/adapters/postgres"
	"hisoutlier/adapters/sqlgen"
	"hisoutlier/app"
	"hisoutlier/domain/period"
	"hisoutlier/internal"
	"hisoutlier/internal/api"
	"hisoutlier/internal/config"
	"hisoutlier/internal/errors"
	"hisoutlier/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Periods *period.Formatter

	// Detection components
	Builders *sqlgen.Registry
	Store    *memory.Store
	Detector ports.OutlierDetector
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Periods: period.NewFormatter(nil),
	}, nil
}

// OpenDatabase opens and pings the configured database.
func (c *Container) OpenDatabase(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", c.Config.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to open database", err)
	}
	if c.Config.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.DatabaseError("database connection test failed", err)
	}
	return db, nil
}

// InitWithDatabase wires the SQL detection pipeline on top of db.
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	dialect, err := sqlgen.DialectByName(c.Config.Database.Dialect)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "SQL_DIALECT"))
	}

	c.DB = db
	c.Builders = sqlgen.NewRegistry(dialect, sqlgen.Options{ModifiedZScoreMAD: c.Config.Outlier.ModifiedZScoreMAD})
	c.Detector = app.NewOutlierService(
		c.Builders,
		postgres.NewRowSource(db, c.Config.Database.StatementTimeout),
		app.NewRowMapper(c.Periods),
		c.Logger,
	)

	c.Logger.Info("Container initialized with %s dialect", dialect.Name())
	return nil
}

// InitOffline wires the in-memory detector over store.
func (c *Container) InitOffline(store *memory.Store) error {
	if store == nil {
		return fmt.Errorf("store cannot be nil")
	}

	c.Store = store
	c.Detector = memory.NewDetector(store, memory.Options{ModifiedZScoreMAD: c.Config.Outlier.ModifiedZScoreMAD}, c.Periods)

	c.Logger.Info("Container initialized offline with %d facts", store.Len())
	return nil
}

// Handler returns the HTTP handler serving the configured detector.
func (c *Container) Handler() (*api.OutlierHandler, error) {
	if c.Detector == nil {
		return nil, fmt.Errorf("detector not initialized")
	}
	return api.NewOutlierHandler(c.Detector, c.Config.Outlier.Limits(), c.Logger), nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
