package repository

import (
	"context"

	"fitquest/internal/db"
	"fitquest/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRepository stores directed friend requests. A request from A to B
// becomes a friendship once B accepts it.
type FriendRepository struct {
	db *pgxpool.Pool
}

func NewFriendRepository(db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: db}
}

func (r *FriendRepository) Request(ctx context.Context, userID, friendID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO friends (user_id, friend_id)
		 SELECT $1::bigint, $2::bigint
		 WHERE NOT EXISTS (SELECT 1 FROM friends WHERE user_id = $2 AND friend_id = $1)
		 ON CONFLICT DO NOTHING`,
		userID, friendID,
	)
	if db.ForeignKeyViolation(err) {
		return domain.ErrUserNotFound
	}
	return err
}

// Accept accepts the pending request friendID sent to userID
func (r *FriendRepository) Accept(ctx context.Context, userID, friendID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE friends SET status = 'accepted'
		 WHERE user_id = $2 AND friend_id = $1 AND status = 'pending'`,
		userID, friendID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *FriendRepository) Reject(ctx context.Context, userID, friendID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM friends WHERE user_id = $2 AND friend_id = $1 AND status = 'pending'`,
		userID, friendID,
	)
	return err
}

func (r *FriendRepository) Count(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM friends WHERE (user_id = $1 OR friend_id = $1) AND status = 'accepted'`,
		userID,
	).Scan(&n)
	return n, err
}

func (r *FriendRepository) List(ctx context.Context, userID int64) ([]*domain.Friend, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.username, u.role
		 FROM friends f
		 JOIN users u ON u.id = CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END
		 WHERE (f.user_id = $1 OR f.friend_id = $1) AND f.status = 'accepted'
		 ORDER BY u.username`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFriends(rows)
}

// Pending lists users waiting for userID to accept their request
func (r *FriendRepository) Pending(ctx context.Context, userID int64) ([]*domain.Friend, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.username, u.role
		 FROM friends f
		 JOIN users u ON u.id = f.user_id
		 WHERE f.friend_id = $1 AND f.status = 'pending'
		 ORDER BY f.created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFriends(rows)
}

func scanFriends(rows pgx.Rows) ([]*domain.Friend, error) {
	var result []*domain.Friend
	for rows.Next() {
		var f domain.Friend
		if err := rows.Scan(&f.ID, &f.Username, &f.Role); err != nil {
			return nil, err
		}
		result = append(result, &f)
	}
	return result, rows.Err()
}
