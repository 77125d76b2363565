package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_CoverAllTables(t *testing.T) {
	joined := strings.Join(Migrations(), "\n")

	for _, table := range []string{"subscribers", "packages", "payments", "transactions", "revenue_daily"} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table, table)
	}

	// One ledger row per payment, enforced at the schema level.
	assert.Contains(t, joined, "UNIQUE INDEX IF NOT EXISTS idx_transactions_payment")
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range Migrations() {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE").WillReturnError(assert.AnError)

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 0 failed")
}
