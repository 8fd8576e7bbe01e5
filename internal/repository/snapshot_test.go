package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/fire_risk_grid/internal/models"
)

// fakeDB хранит "закоммиченное" состояние таблиц; транзакция работает с копией
type fakeDB struct {
	DB

	header []any
	rows   [][]any

	beginErr   error
	copyErr    error
	commitErr  error
	rolledBack bool
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &fakeTx{
		db:     f,
		header: f.header,
		rows:   append([][]any(nil), f.rows...),
	}, nil
}

type fakeTx struct {
	pgx.Tx

	db     *fakeDB
	header []any
	rows   [][]any
	closed bool
}

func (tx *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.Contains(sql, "DELETE FROM regional_fire_risk"):
		tx.rows = nil
	case strings.Contains(sql, "DELETE FROM fire_risk_snapshots"):
		tx.header = nil
	case strings.Contains(sql, "INSERT INTO fire_risk_snapshots"):
		tx.header = args
	default:
		return pgconn.CommandTag{}, errors.New("unexpected statement")
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (tx *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if table.Sanitize() != `"regional_fire_risk"` || len(columns) != len(riskColumns) {
		return 0, errors.New("unexpected copy target")
	}
	var n int64
	for src.Next() {
		// Сбой посреди COPY: часть строк уже добавлена в транзакцию
		if tx.db.copyErr != nil && n == 1 {
			return n, tx.db.copyErr
		}
		values, err := src.Values()
		if err != nil {
			return n, err
		}
		tx.rows = append(tx.rows, values)
		n++
	}
	return n, nil
}

func (tx *fakeTx) Commit(context.Context) error {
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	if tx.db.commitErr != nil {
		return tx.db.commitErr
	}
	tx.db.header = tx.header
	tx.db.rows = tx.rows
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	tx.closed = true
	tx.db.rolledBack = true
	return nil
}

func testSnapshot(n int) *models.Snapshot {
	at := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Snapshot{ID: uuid.New(), GeneratedAt: at}
	for i := 0; i < n; i++ {
		s.Estimates = append(s.Estimates, models.RiskEstimate{
			Latitude:    32.5 + float64(i),
			Longitude:   -120,
			Probability: 0.1 * float64(i),
			Timestamp:   at,
		})
	}
	return s
}

// seeded возвращает базу с уже записанным снимком prior
func seeded(t *testing.T, prior *models.Snapshot) *fakeDB {
	t.Helper()
	db := &fakeDB{}
	require.NoError(t, NewSnapshotRepository(db).Replace(context.Background(), prior))
	require.Len(t, db.rows, len(prior.Estimates))
	return db
}

func TestReplace_Success(t *testing.T) {
	prior := testSnapshot(3)
	db := seeded(t, prior)
	next := testSnapshot(2)

	err := NewSnapshotRepository(db).Replace(context.Background(), next)

	require.NoError(t, err)
	assert.False(t, db.rolledBack)
	require.Len(t, db.rows, 2)
	assert.Equal(t, []any{next.ID, next.GeneratedAt, 32.5, -120.0, 0.0}, db.rows[0])
	assert.Equal(t, next.ID, db.header[0])
	assert.Equal(t, 2, db.header[2])
}

func TestReplace_CopyFailureKeepsPriorSnapshot(t *testing.T) {
	prior := testSnapshot(3)
	db := seeded(t, prior)
	rowsBefore := append([][]any(nil), db.rows...)
	headerBefore := db.header

	db.copyErr = errors.New("connection reset")
	err := NewSnapshotRepository(db).Replace(context.Background(), testSnapshot(4))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorContains(t, err, "connection reset")
	assert.True(t, db.rolledBack)
	assert.Equal(t, rowsBefore, db.rows)
	assert.Equal(t, headerBefore, db.header)
}

func TestReplace_CommitFailureKeepsPriorSnapshot(t *testing.T) {
	prior := testSnapshot(2)
	db := seeded(t, prior)
	rowsBefore := append([][]any(nil), db.rows...)

	db.commitErr = errors.New("serialization failure")
	err := NewSnapshotRepository(db).Replace(context.Background(), testSnapshot(5))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, rowsBefore, db.rows)
}

func TestReplace_BeginFailure(t *testing.T) {
	db := &fakeDB{beginErr: errors.New("pool closed")}

	err := NewSnapshotRepository(db).Replace(context.Background(), testSnapshot(1))

	assert.ErrorIs(t, err, ErrPersistence)
	assert.Nil(t, db.rows)
}
