package repository

import (
	"context"

	"fitquest/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BadgeRepository struct {
	db *pgxpool.Pool
}

func NewBadgeRepository(db *pgxpool.Pool) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Grant inserts the badge once. It reports false when the user already holds it.
func (r *BadgeRepository) Grant(ctx context.Context, userID, badgeID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO user_badges (user_id, badge_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, badgeID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *BadgeRepository) All(ctx context.Context) ([]*domain.Badge, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM badges ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description); err != nil {
			return nil, err
		}
		result = append(result, &b)
	}
	return result, rows.Err()
}

func (r *BadgeRepository) ForUser(ctx context.Context, userID int64) ([]*domain.UserBadge, error) {
	rows, err := r.db.Query(ctx,
		`SELECT b.id, b.name, b.description, ub.granted_at
		 FROM user_badges ub
		 JOIN badges b ON b.id = ub.badge_id
		 WHERE ub.user_id = $1
		 ORDER BY ub.granted_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.UserBadge
	for rows.Next() {
		var ub domain.UserBadge
		if err := rows.Scan(&ub.ID, &ub.Name, &ub.Description, &ub.GrantedAt); err != nil {
			return nil, err
		}
		result = append(result, &ub)
	}
	return result, rows.Err()
}

type LevelRepository struct {
	db *pgxpool.Pool
}

func NewLevelRepository(db *pgxpool.Pool) *LevelRepository {
	return &LevelRepository{db: db}
}

func (r *LevelRepository) All(ctx context.Context) ([]domain.Level, error) {
	rows, err := r.db.Query(ctx, `SELECT level, xp_required, reward_tokens FROM levels ORDER BY level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Level
	for rows.Next() {
		var l domain.Level
		if err := rows.Scan(&l.Level, &l.XPRequired, &l.RewardTokens); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
