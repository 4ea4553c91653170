package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Rafcin/openship/internal/infrastructure/logger"
)

// newMockDatabase opens the production gorm configuration over sqlmock.
// Statement preparation is off so expectations match plain execs.
func newMockDatabase(t *testing.T, gl gormlogger.Interface) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	cfg := gormConfig(gl)
	cfg.PrepareStmt = false
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), cfg)
	require.NoError(t, err)
	return &Database{DB: db}, mock
}

func TestDatabase_PingContext(t *testing.T) {
	t.Run("live connection", func(t *testing.T) {
		db, mock := newMockDatabase(t, gormlogger.Discard)
		mock.ExpectPing()

		require.NoError(t, db.PingContext(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("readiness deadline already passed", func(t *testing.T) {
		db, _ := newMockDatabase(t, gormlogger.Discard)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, db.PingContext(ctx), context.Canceled)
	})
}

func TestDatabase_Transaction(t *testing.T) {
	orderID, shopID := uuid.NewString(), uuid.NewString()
	insert := func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO orders (id, shop_id, external_order_id) VALUES (?, ?, ?)", orderID, shopID, "1001").Error
	}

	t.Run("commits", func(t *testing.T) {
		db, mock := newMockDatabase(t, gormlogger.Discard)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).WithArgs(orderID, shopID, "1001").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, db.Transaction(insert))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation rolls back as a duplicated key", func(t *testing.T) {
		db, mock := newMockDatabase(t, gormlogger.Discard)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).WillReturnError(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "idx_orders_shop_external",
		})
		mock.ExpectRollback()

		err := db.Transaction(insert)
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_StatementsCarryOrderScope(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	db, mock := newMockDatabase(t, logger.NewGormLogger(zap.New(core), gormlogger.Info, 0))

	orderID := uuid.New()
	mock.ExpectExec(`UPDATE orders SET status`).WithArgs("AWAITING", orderID.String()).WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := logger.WithOrder(context.Background(), orderID)
	require.NoError(t, db.DB.WithContext(ctx).Exec("UPDATE orders SET status = ? WHERE id = ?", "AWAITING", orderID.String()).Error)

	entries := logs.FilterMessage("SQL").All()
	require.Len(t, entries, 1)
	assert.Equal(t, orderID.String(), entries[0].ContextMap()["order_id"])
	assert.Contains(t, entries[0].ContextMap()["sql"], "UPDATE orders SET status")
}

func TestDatabase_StatsAndClose(t *testing.T) {
	db, mock := newMockDatabase(t, gormlogger.Discard)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(7)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 7, stats.MaxOpenConnections)
	assert.GreaterOrEqual(t, stats.OpenConnections, stats.InUse)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
