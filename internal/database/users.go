package database

import (
	"context"
	"errors"

	"magazyn-dokumentow/internal/models"

	"github.com/jackc/pgx/v5"
)

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, display_name, created_at
		FROM users
		WHERE username = $1
	`
	var user models.User

	err := q.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetUserGroupIDs lists the group memberships baked into the user's token at
// login time.
func (q *Queries) GetUserGroupIDs(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT group_id
		FROM user_groups
		WHERE user_id = $1
		ORDER BY group_id
	`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groupIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		groupIDs = append(groupIDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if groupIDs == nil {
		return []string{}, nil
	}

	return groupIDs, nil
}
