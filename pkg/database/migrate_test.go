package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sciclub-api/pkg/config"
)

func TestMigrateAppliesSchema(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRollsBackOnFailure(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	require.Error(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaDeclaresApplicationConstraints(t *testing.T) {
	s := Schema()
	assert.Contains(t, s, "email VARCHAR(255) NOT NULL UNIQUE")
	assert.Contains(t, s, "'pending', 'verified', 'revision', 'approved', 'declined'")
}

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "club", Password: "p@ss word", Name: "sciclub", SSLMode: "disable"})
	assert.Equal(t, "postgres://club:p%40ss%20word@db:5432/sciclub?sslmode=disable", dsn)
}
