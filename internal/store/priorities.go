package store

import (
	"context"
	"fmt"
)

// SavePriorities replaces a user's category ranking. ids[0] is the highest
// priority.
func (s *Store) SavePriorities(ctx context.Context, userID string, ids []string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM priorities WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear priorities: %w", err)
	}
	for rank, id := range ids {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO priorities (user_id, category_id, priority_rank) VALUES (?, ?, ?)`,
			userID, id, rank,
		); err != nil {
			return fmt.Errorf("insert priority %s: %w", id, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Priorities returns a user's saved ranking, highest first. A user who never
// saved one gets an empty slice.
func (s *Store) Priorities(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id FROM priorities WHERE user_id = ? ORDER BY priority_rank`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list priorities: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan priority: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list priorities: %w", err)
	}
	return ids, nil
}
