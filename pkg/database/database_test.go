package database

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/richxcame/cyberguard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     "5433",
		User:     "cg",
		Password: "secret",
		DBName:   "cyberguard",
		SSLMode:  "require",
	}

	assert.Equal(t, "host=db port=5433 user=cg password=secret dbname=cyberguard sslmode=require", cfg.DSN())
}

func TestClose_NilPool(t *testing.T) {
	assert.NotPanics(t, func() { Close(nil) })
}

func TestMigrations_EmbeddedSource(t *testing.T) {
	source, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer source.Close()

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := source.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}

func TestMigrations_UpDownPairs(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	assert.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestMigrations_CreateCoreTables(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_create_analysis.up.sql")
	require.NoError(t, err)

	sql := string(data)
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS analysis_results")
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS analysis_queue")
	assert.Contains(t, sql, "CHECK (fraud_score BETWEEN 0 AND 100)")
}

func TestMigrateUp_DatabaseUnreachable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err = MigrateUp(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration driver")
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}
