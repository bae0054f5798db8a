package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

type ledgerRow struct {
	ID     uint
	Number int `gorm:"uniqueIndex"`
}

func openSQLite(t *testing.T) *Client {
	t.Helper()
	cfg := config.DBConfig{SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())}
	client, err := New(context.Background(), cfg, Options{UseSQLite: true}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&ledgerRow{}))
	return client
}

func countRows(t *testing.T, c *Client) int64 {
	t.Helper()
	var n int64
	require.NoError(t, c.DB().Model(&ledgerRow{}).Count(&n).Error)
	return n
}

func TestNewSQLiteClient(t *testing.T) {
	client := openSQLite(t)
	assert.Equal(t, "sqlite", client.Dialect())
	assert.NoError(t, client.Ping(context.Background()))

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewPostgresRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, Options{}, nil)
	assert.ErrorContains(t, err, "DSN is required")
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	client := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&ledgerRow{Number: 1}).Error
	}))
	assert.EqualValues(t, 1, countRows(t, client))

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&ledgerRow{Number: 2}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, countRows(t, client))

	assert.Panics(t, func() {
		_ = client.WithTx(ctx, func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&ledgerRow{Number: 3}).Error)
			panic("kaboom")
		})
	})
	assert.EqualValues(t, 1, countRows(t, client))
}

func TestIsUniqueViolation(t *testing.T) {
	client := openSQLite(t)
	require.NoError(t, client.DB().Create(&ledgerRow{Number: 9}).Error)
	err := client.DB().Create(&ledgerRow{Number: 9}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err, ""))

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uniq_tables_store_number"}
	wrapped := fmt.Errorf("create table: %w", pgErr)
	assert.True(t, IsUniqueViolation(wrapped, "uniq_tables_store_number"))
	assert.False(t, IsUniqueViolation(wrapped, "uniq_active_session"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}
