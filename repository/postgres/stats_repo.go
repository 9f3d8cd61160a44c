package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/backend/domain"
	"github.com/taskhive/backend/repository"
)

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a Postgres-backed StatsRepository implementation.
func NewStatsRepository(pool *pgxpool.Pool) repository.StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) UserStats(ctx context.Context, userID string, completedSince time.Time) (*domain.TaskStats, error) {
	stats := &domain.TaskStats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	const breakdown = `
	SELECT status, priority, COUNT(*),
		COUNT(*) FILTER (WHERE due_date IS NOT NULL AND due_date < NOW() AND status <> 'completed')
	FROM tasks
	WHERE user_id = $1
	GROUP BY status, priority
	`
	rows, err := r.pool.Query(ctx, breakdown, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status, priority string
			count, overdue   int
		)
		if err := rows.Scan(&status, &priority, &count, &overdue); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		stats.Overdue += overdue
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if completedSince.IsZero() {
		return stats, nil
	}

	const completions = `
	SELECT date_trunc('day', updated_at) AS day, COUNT(*)
	FROM tasks
	WHERE user_id = $1 AND status = 'completed' AND updated_at >= $2
	GROUP BY day
	ORDER BY day
	`
	compRows, err := r.pool.Query(ctx, completions, userID, completedSince)
	if err != nil {
		return nil, err
	}
	defer compRows.Close()

	for compRows.Next() {
		var dc domain.DailyCount
		if err := compRows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		stats.Completed = append(stats.Completed, dc)
	}
	return stats, compRows.Err()
}
