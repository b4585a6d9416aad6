package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupCount is one bucket of a grouped count.
type GroupCount struct {
	Key   string
	Count int64
}

// PrioritySLARow reports SLA standing for one priority over tickets still in
// an active status.
type PrioritySLARow struct {
	Priority string
	Total    int64
	Overdue  int64
}

// DurationStats carries avg/min/max of a duration expressed in hours.
type DurationStats struct {
	Avg float64
	Min float64
	Max float64
}

// PriorityDurationStats is DurationStats for one priority bucket.
type PriorityDurationStats struct {
	Priority string
	Stats    DurationStats
}

// AssigneeLoad ranks a user by assigned tickets across every status;
// resolved and closed work counts toward the load.
type AssigneeLoad struct {
	UserID string
	Name   string
	Count  int64
}

// MetricsRepository runs the read-only aggregation queries behind the
// dashboard. It never mutates data; everything is computed per call.
type MetricsRepository interface {
	CountTickets(ctx context.Context, from, to time.Time) (int64, error)
	TicketsByStatus(ctx context.Context, from, to time.Time) ([]GroupCount, error)
	TicketsByCategory(ctx context.Context, from, to time.Time) ([]GroupCount, error)
	TicketsByPriority(ctx context.Context, from, to time.Time) ([]GroupCount, error)
	TicketsByDay(ctx context.Context, from, to time.Time) ([]GroupCount, error)

	OverdueCount(ctx context.Context, now time.Time) (int64, error)
	ResolvedWithinSLA(ctx context.Context) (int64, error)
	ResolvedOutsideSLA(ctx context.Context) (int64, error)
	SLAByPriority(ctx context.Context, now time.Time) ([]PrioritySLARow, error)

	ResolutionStatsByPriority(ctx context.Context) ([]PriorityDurationStats, error)
	FirstResponseStats(ctx context.Context) (*DurationStats, error)

	UsersByRole(ctx context.Context) ([]GroupCount, error)
	UserActivityCounts(ctx context.Context) (active int64, inactive int64, err error)
	TopAssignees(ctx context.Context, limit int) ([]AssigneeLoad, error)

	CountAllByStatus(ctx context.Context) ([]GroupCount, error)
	AvgResolutionHours(ctx context.Context) (float64, error)
}

type metricsRepository struct {
	pool *pgxpool.Pool
}

// NewMetricsRepository builds the repository.
func NewMetricsRepository(pool *pgxpool.Pool) MetricsRepository {
	return &metricsRepository{pool: pool}
}

func (r *metricsRepository) CountTickets(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE created_at >= $1 AND created_at <= $2`
	var count int64
	err := r.pool.QueryRow(ctx, query, from, to).Scan(&count)
	return count, err
}

func (r *metricsRepository) groupCountInWindow(ctx context.Context, column string, from, to time.Time) ([]GroupCount, error) {
	query := `SELECT ` + column + `, COUNT(*) FROM tickets
        WHERE created_at >= $1 AND created_at <= $2
        GROUP BY ` + column
	return r.scanGroupCounts(ctx, query, from, to)
}

func (r *metricsRepository) TicketsByStatus(ctx context.Context, from, to time.Time) ([]GroupCount, error) {
	return r.groupCountInWindow(ctx, "status", from, to)
}

func (r *metricsRepository) TicketsByCategory(ctx context.Context, from, to time.Time) ([]GroupCount, error) {
	return r.groupCountInWindow(ctx, "category", from, to)
}

func (r *metricsRepository) TicketsByPriority(ctx context.Context, from, to time.Time) ([]GroupCount, error) {
	return r.groupCountInWindow(ctx, "priority", from, to)
}

func (r *metricsRepository) TicketsByDay(ctx context.Context, from, to time.Time) ([]GroupCount, error) {
	const query = `
        SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
        FROM tickets WHERE created_at >= $1 AND created_at <= $2
        GROUP BY day ORDER BY day ASC`
	return r.scanGroupCounts(ctx, query, from, to)
}

func (r *metricsRepository) scanGroupCounts(ctx context.Context, query string, args ...any) ([]GroupCount, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, err
		}
		result = append(result, gc)
	}
	return result, rows.Err()
}

func (r *metricsRepository) OverdueCount(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE status IN ('OPEN','IN_PROGRESS') AND sla_deadline < $1`
	var count int64
	err := r.pool.QueryRow(ctx, query, now).Scan(&count)
	return count, err
}

func (r *metricsRepository) ResolvedWithinSLA(ctx context.Context) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE status='RESOLVED' AND resolved_at IS NOT NULL
          AND sla_deadline IS NOT NULL AND resolved_at <= sla_deadline`
	var count int64
	err := r.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

func (r *metricsRepository) ResolvedOutsideSLA(ctx context.Context) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE status='RESOLVED' AND resolved_at IS NOT NULL
          AND sla_deadline IS NOT NULL AND resolved_at > sla_deadline`
	var count int64
	err := r.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

func (r *metricsRepository) SLAByPriority(ctx context.Context, now time.Time) ([]PrioritySLARow, error) {
	const query = `
        SELECT priority, COUNT(*),
               COUNT(*) FILTER (WHERE sla_deadline < $1)
        FROM tickets
        WHERE status IN ('OPEN','IN_PROGRESS') AND sla_deadline IS NOT NULL
        GROUP BY priority`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PrioritySLARow
	for rows.Next() {
		var row PrioritySLARow
		if err := rows.Scan(&row.Priority, &row.Total, &row.Overdue); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *metricsRepository) ResolutionStatsByPriority(ctx context.Context) ([]PriorityDurationStats, error) {
	const query = `
        SELECT priority,
               AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600.0),
               MIN(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600.0),
               MAX(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600.0)
        FROM tickets
        WHERE status='RESOLVED' AND resolved_at IS NOT NULL
        GROUP BY priority`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PriorityDurationStats
	for rows.Next() {
		var row PriorityDurationStats
		if err := rows.Scan(&row.Priority, &row.Stats.Avg, &row.Stats.Min, &row.Stats.Max); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// FirstResponseStats measures creation to the second history entry, the
// first action recorded after the creation entry. Returns nil when no ticket
// has a second entry yet.
func (r *metricsRepository) FirstResponseStats(ctx context.Context) (*DurationStats, error) {
	const query = `
        SELECT AVG(h), MIN(h), MAX(h) FROM (
            SELECT EXTRACT(EPOCH FROM (hh.created_at - t.created_at)) / 3600.0 AS h
            FROM tickets t
            JOIN (
                SELECT ticket_id, created_at,
                       ROW_NUMBER() OVER (PARTITION BY ticket_id ORDER BY seq ASC) AS rn
                FROM ticket_history
            ) hh ON hh.ticket_id = t.id AND hh.rn = 2
        ) samples`
	var avg, min, max *float64
	if err := r.pool.QueryRow(ctx, query).Scan(&avg, &min, &max); err != nil {
		return nil, err
	}
	if avg == nil {
		return nil, nil
	}
	return &DurationStats{Avg: *avg, Min: *min, Max: *max}, nil
}

func (r *metricsRepository) UsersByRole(ctx context.Context) ([]GroupCount, error) {
	const query = `SELECT role, COUNT(*) FROM users GROUP BY role`
	return r.scanGroupCounts(ctx, query)
}

func (r *metricsRepository) UserActivityCounts(ctx context.Context) (int64, int64, error) {
	const query = `
        SELECT COUNT(*) FILTER (WHERE active_flag),
               COUNT(*) FILTER (WHERE NOT active_flag)
        FROM users`
	var active, inactive int64
	err := r.pool.QueryRow(ctx, query).Scan(&active, &inactive)
	return active, inactive, err
}

func (r *metricsRepository) TopAssignees(ctx context.Context, limit int) ([]AssigneeLoad, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
        SELECT t.assignee_user_id, u.name, COUNT(*)
        FROM tickets t
        JOIN users u ON u.id = t.assignee_user_id
        WHERE t.assignee_user_id IS NOT NULL
        GROUP BY t.assignee_user_id, u.name
        ORDER BY COUNT(*) DESC
        LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AssigneeLoad
	for rows.Next() {
		var row AssigneeLoad
		if err := rows.Scan(&row.UserID, &row.Name, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *metricsRepository) CountAllByStatus(ctx context.Context) ([]GroupCount, error) {
	const query = `SELECT status, COUNT(*) FROM tickets GROUP BY status`
	return r.scanGroupCounts(ctx, query)
}

func (r *metricsRepository) AvgResolutionHours(ctx context.Context) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600.0), 0)
        FROM tickets
        WHERE status='RESOLVED' AND resolved_at IS NOT NULL`
	var avg float64
	err := r.pool.QueryRow(ctx, query).Scan(&avg)
	return avg, err
}
