package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// nextTicketSequence claims the next ticket sequence number for a year. The
// upsert-and-return runs as a single statement on the caller's transaction;
// a rolled back creation rolls the increment back with it.
func nextTicketSequence(ctx context.Context, tx pgx.Tx, year int) (int64, error) {
	const query = `
        INSERT INTO ticket_counters (year, value) VALUES ($1, 1)
        ON CONFLICT (year) DO UPDATE SET value = ticket_counters.value + 1
        RETURNING value`
	var value int64
	if err := tx.QueryRow(ctx, query, year).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
