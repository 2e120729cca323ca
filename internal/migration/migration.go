package migration

import (
	"context"

	"hisoutlier/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db sqlx.ExecerContext) error
	Version() string
}

// MigrationRunner creates the aggregate data schema queried by the outlier
// detection statements.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db sqlx.ExecerContext) error {
	steps := []struct {
		name string
		fn   func(context.Context, sqlx.ExecerContext) error
	}{
		{"periodtype", r.createPeriodTypeTable},
		{"period", r.createPeriodTable},
		{"dataelement", r.createDataElementTable},
		{"organisationunit", r.createOrganisationUnitTable},
		{"categoryoptioncombo", r.createCategoryOptionComboTable},
		{"datavalue", r.createDataValueTable},
		{"minmaxdataelement", r.createMinMaxTable},
		{"indexes", r.createIndexes},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to create %s", s.name))
		}
	}
	return nil
}

func (r *MigrationRunner) createPeriodTypeTable(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS periodtype (
			periodtypeid BIGSERIAL PRIMARY KEY,
			name VARCHAR(50) UNIQUE NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createPeriodTable(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS period (
			periodid BIGSERIAL PRIMARY KEY,
			periodtypeid BIGINT NOT NULL REFERENCES periodtype(periodtypeid),
			startdate DATE NOT NULL,
			enddate DATE NOT NULL,
			UNIQUE (periodtypeid, startdate, enddate)
		)
	`)
	return err
}

func (r *MigrationRunner) createDataElementTable(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS dataelement (
			dataelementid BIGSERIAL PRIMARY KEY,
			uid VARCHAR(11) UNIQUE NOT NULL,
			name VARCHAR(230) NOT NULL,
			valuetype VARCHAR(50) NOT NULL DEFAULT 'NUMBER'
		)
	`)
	return err
}

func (r *MigrationRunner) createOrganisationUnitTable(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS organisationunit (
			organisationunitid BIGSERIAL PRIMARY KEY,
			uid VARCHAR(11) UNIQUE NOT NULL,
			name VARCHAR(230) NOT NULL,
			"path" VARCHAR(255) NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createCategoryOptionComboTable(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS categoryoptioncombo (
			categoryoptioncomboid BIGSERIAL PRIMARY KEY,
			uid VARCHAR(11) UNIQUE NOT NULL,
			name VARCHAR(230)
		)
	`)
	return err
}

func (r *MigrationRunner) createDataValueTable(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS datavalue (
			dataelementid BIGINT NOT NULL REFERENCES dataelement(dataelementid),
			periodid BIGINT NOT NULL REFERENCES period(periodid),
			sourceid BIGINT NOT NULL REFERENCES organisationunit(organisationunitid),
			categoryoptioncomboid BIGINT NOT NULL REFERENCES categoryoptioncombo(categoryoptioncomboid),
			attributeoptioncomboid BIGINT NOT NULL REFERENCES categoryoptioncombo(categoryoptioncomboid),
			value VARCHAR(50000),
			followup BOOLEAN NOT NULL DEFAULT false,
			deleted BOOLEAN NOT NULL DEFAULT false,
			created TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (dataelementid, periodid, sourceid, categoryoptioncomboid, attributeoptioncomboid)
		)
	`)
	return err
}

func (r *MigrationRunner) createMinMaxTable(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS minmaxdataelement (
			minmaxdataelementid BIGSERIAL PRIMARY KEY,
			dataelementid BIGINT NOT NULL REFERENCES dataelement(dataelementid),
			sourceid BIGINT NOT NULL REFERENCES organisationunit(organisationunitid),
			categoryoptioncomboid BIGINT NOT NULL REFERENCES categoryoptioncombo(categoryoptioncomboid),
			minimumvalue DOUBLE PRECISION NOT NULL,
			maximumvalue DOUBLE PRECISION NOT NULL,
			generated BOOLEAN NOT NULL DEFAULT false,
			UNIQUE (sourceid, dataelementid, categoryoptioncomboid)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db sqlx.ExecerContext) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_datavalue_dataelement_period ON datavalue(dataelementid, periodid)`,
		`CREATE INDEX IF NOT EXISTS idx_datavalue_source ON datavalue(sourceid)`,
		`CREATE INDEX IF NOT EXISTS idx_organisationunit_path ON organisationunit("path" text_pattern_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_period_dates ON period(startdate, enddate)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
