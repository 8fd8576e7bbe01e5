package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shenikar/fire_risk_grid/internal/models"
	"github.com/shenikar/fire_risk_grid/internal/service"
)

// ErrPersistence - снимок не удалось записать, предыдущий снимок не изменился
var ErrPersistence = errors.New("snapshot persistence failed")

var riskColumns = []string{"snapshot_id", "timestamp", "latitude", "longitude", "probability"}

// DB - часть pgxpool.Pool, которой пользуются репозитории
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SnapshotRepository struct {
	db DB
}

func NewSnapshotRepository(db DB) service.SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Replace заменяет текущий снимок новым в одной транзакции:
// удаление старых строк и COPY новых либо применяются вместе, либо не применяются вовсе.
func (r *SnapshotRepository) Replace(ctx context.Context, snapshot *models.Snapshot) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			// Откат выполняется и при отмененном контексте вызова
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM regional_fire_risk;`); err != nil {
		return fmt.Errorf("%w: delete risk rows: %w", ErrPersistence, err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM fire_risk_snapshots;`); err != nil {
		return fmt.Errorf("%w: delete snapshot header: %w", ErrPersistence, err)
	}

	query := `
		INSERT INTO fire_risk_snapshots (id, generated_at, point_count)
		VALUES ($1, $2, $3);
	`
	if _, err = tx.Exec(ctx, query, snapshot.ID, snapshot.GeneratedAt, len(snapshot.Estimates)); err != nil {
		return fmt.Errorf("%w: insert snapshot header: %w", ErrPersistence, err)
	}

	rows := make([][]any, 0, len(snapshot.Estimates))
	for _, e := range snapshot.Estimates {
		rows = append(rows, []any{snapshot.ID, e.Timestamp, e.Latitude, e.Longitude, e.Probability})
	}
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"regional_fire_risk"}, riskColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("%w: copy risk rows: %w", ErrPersistence, err)
	}
	if copied != int64(len(rows)) {
		return fmt.Errorf("%w: copied %d of %d rows", ErrPersistence, copied, len(rows))
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	return nil
}

// Latest возвращает текущий снимок с оценками не ниже minProbability, по строкам сетки
func (r *SnapshotRepository) Latest(ctx context.Context, minProbability float64) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{}
	query := `
		SELECT id, generated_at
		FROM fire_risk_snapshots
		ORDER BY generated_at DESC
		LIMIT 1;
	`
	err := r.db.QueryRow(ctx, query).Scan(&snapshot.ID, &snapshot.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot header: %w", err)
	}

	query = `
		SELECT timestamp, latitude, longitude, probability
		FROM regional_fire_risk
		WHERE snapshot_id = $1 AND probability >= $2
		ORDER BY latitude, longitude;
	`
	rows, err := r.db.Query(ctx, query, snapshot.ID, minProbability)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk estimates: %w", err)
	}
	defer rows.Close()

	snapshot.Estimates = make([]models.RiskEstimate, 0)
	for rows.Next() {
		var e models.RiskEstimate
		if err := rows.Scan(&e.Timestamp, &e.Latitude, &e.Longitude, &e.Probability); err != nil {
			return nil, fmt.Errorf("failed to scan risk estimate row: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		snapshot.Estimates = append(snapshot.Estimates, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	snapshot.GeneratedAt = snapshot.GeneratedAt.UTC()
	return snapshot, nil
}
