package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/cartboardapp/cartboard-server/internal/domain"
	"github.com/cartboardapp/cartboard-server/internal/store"
)

// activityColumns is the ordered list of columns selected in activity queries.
// Must match the scan order in scanActivity.
const activityColumns = `id, user_id, type, created_at,
	user_display_name, cart_id, cart_name, item_name, todo_id, todo_title`

// scanActivity scans a sql.Row (or sql.Rows via its Scan method) into a domain.Activity.
func scanActivity(scanner interface{ Scan(dest ...any) error }) (*domain.Activity, error) {
	var a domain.Activity

	var (
		activityType string
		createdAt    string
		cartID       sql.NullString
		cartName     sql.NullString
		itemName     sql.NullString
		todoID       sql.NullString
		todoTitle    sql.NullString
	)

	err := scanner.Scan(
		&a.ID,
		&a.UserID,
		&activityType,
		&createdAt,
		&a.UserDisplayName,
		&cartID,
		&cartName,
		&itemName,
		&todoID,
		&todoTitle,
	)
	if err != nil {
		return nil, err
	}

	// Enum field.
	a.Type = domain.ActivityType(activityType)

	// Parse timestamp.
	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	// Nullable fields.
	if cartID.Valid {
		a.CartID = cartID.String
	}
	if cartName.Valid {
		a.CartName = cartName.String
	}
	if itemName.Valid {
		a.ItemName = itemName.String
	}
	if todoID.Valid {
		a.TodoID = todoID.String
	}
	if todoTitle.Valid {
		a.TodoTitle = todoTitle.String
	}

	return &a, nil
}

// CreateActivity inserts a new activity into the database.
// Returns store.ErrAlreadyExists if the activity ID already exists.
func (s *Store) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (
			id, user_id, type, created_at,
			user_display_name, cart_id, cart_name, item_name, todo_id, todo_title
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID,
		activity.UserID,
		string(activity.Type),
		formatTime(activity.CreatedAt),
		activity.UserDisplayName,
		nullString(activity.CartID),
		nullString(activity.CartName),
		nullString(activity.ItemName),
		nullString(activity.TodoID),
		nullString(activity.TodoTitle),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetActivity retrieves a single activity by ID.
// Returns store.ErrNotFound if the activity does not exist.
func (s *Store) GetActivity(ctx context.Context, id string) (*domain.Activity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetActivitiesFeed retrieves the global activity feed sorted by created_at descending.
// Use 'before' for cursor-based pagination (pass the CreatedAt of the last item).
// 'beforeID' provides deterministic cursor pagination when multiple activities share a timestamp.
// Returns up to 'limit' activities.
func (s *Store) GetActivitiesFeed(ctx context.Context, limit int, before *time.Time, beforeID string) ([]*domain.Activity, error) {
	var query string
	var args []any

	if before != nil && beforeID != "" {
		query = `SELECT ` + activityColumns + ` FROM activities
			WHERE (created_at < ? OR (created_at = ? AND id < ?))
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		ts := formatTime(*before)
		args = append(args, ts, ts, beforeID, limit)
	} else if before != nil {
		query = `SELECT ` + activityColumns + ` FROM activities
			WHERE created_at < ?
			ORDER BY created_at DESC
			LIMIT ?`
		args = append(args, formatTime(*before), limit)
	} else {
		query = `SELECT ` + activityColumns + ` FROM activities
			ORDER BY created_at DESC
			LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetUserActivities retrieves activities for a specific user sorted by created_at descending.
func (s *Store) GetUserActivities(ctx context.Context, userID string, limit int) ([]*domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetCartActivities retrieves activities for a specific cart sorted by created_at descending.
func (s *Store) GetCartActivities(ctx context.Context, cartID string, limit int) ([]*domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities
		WHERE cart_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		cartID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}
