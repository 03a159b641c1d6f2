package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"clickshare/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestConnectSuccess(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	assert.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectPing()

	originalOpenDB := openDB
	var gotDSN string
	openDB = func(driverName, dataSourceName string) (*sql.DB, error) {
		gotDSN = dataSourceName
		return mockDB, nil
	}
	defer func() { openDB = originalOpenDB }()

	cfg := config.DatabaseConfig{
		Engine:   "postgres",
		Host:     "localhost",
		Port:     "5432",
		Username: "user",
		Password: "pass",
		Name:     "db",
		SSLMode:  "disable",
	}

	assert.NoError(t, Connect(cfg))
	assert.Equal(t, "host=localhost port=5432 user=user password=pass dbname=db sslmode=disable", gotDSN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectUnsupportedEngine(t *testing.T) {
	cfg := config.DatabaseConfig{Engine: "mysql"}
	assert.Error(t, Connect(cfg))
}

func TestConnectOpenError(t *testing.T) {
	originalOpenDB := openDB
	openDB = func(driverName, dataSourceName string) (*sql.DB, error) {
		return nil, errors.New("open error")
	}
	defer func() { openDB = originalOpenDB }()

	cfg := config.DatabaseConfig{Engine: "postgres"}
	assert.Error(t, Connect(cfg))
}

func TestConnectPingError(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	assert.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("ping error"))

	originalOpenDB := openDB
	openDB = func(driverName, dataSourceName string) (*sql.DB, error) {
		return mockDB, nil
	}
	defer func() { openDB = originalOpenDB }()

	cfg := config.DatabaseConfig{Engine: "postgres"}
	assert.Error(t, Connect(cfg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateAppliesSchema(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	originalDB := DB
	DB = mockDB
	defer func() { DB = originalDB }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS profiles").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	originalDB := DB
	DB = mockDB
	defer func() { DB = originalDB }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS profiles").WillReturnError(errors.New("permission denied"))

	assert.Error(t, Migrate(context.Background()))
}

func TestMigrateWithoutConnection(t *testing.T) {
	originalDB := DB
	DB = nil
	defer func() { DB = originalDB }()

	assert.Error(t, Migrate(context.Background()))
}

func TestSchemaDeclaresLookupIndexes(t *testing.T) {
	assert.Contains(t, schema, "CREATE UNIQUE INDEX IF NOT EXISTS profiles_by_slug ON profiles (slug)")
	assert.Contains(t, schema, "CREATE UNIQUE INDEX IF NOT EXISTS profiles_by_edit_token ON profiles (edit_token)")
}
