package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/greenfield-academy/admin-api/internal/models"
)

// SubscriberRepository manages persistence for newsletter subscribers.
type SubscriberRepository struct {
	db *sqlx.DB
}

// NewSubscriberRepository constructs a SubscriberRepository.
func NewSubscriberRepository(db *sqlx.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

const subscriberColumns = "id, email, name, subscribed, subscribed_at, revoked_at"

// List returns subscribers matching filters along with total count.
func (r *SubscriberRepository) List(ctx context.Context, filter models.SubscriberFilter) ([]models.Subscriber, int, error) {
	base := "FROM subscribers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Subscribed != nil {
		conditions = append(conditions, fmt.Sprintf("subscribed = $%d", len(args)+1))
		args = append(args, *filter.Subscribed)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(COALESCE(name, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 1000 {
		size = 500
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY subscribed_at DESC LIMIT %d OFFSET %d", subscriberColumns, base, size, offset)
	var subscribers []models.Subscriber
	if err := r.db.SelectContext(ctx, &subscribers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	return subscribers, total, nil
}

// ListAll returns every subscriber row, used by the CSV export.
func (r *SubscriberRepository) ListAll(ctx context.Context) ([]models.Subscriber, error) {
	query := fmt.Sprintf("SELECT %s FROM subscribers ORDER BY subscribed_at DESC", subscriberColumns)
	var subscribers []models.Subscriber
	if err := r.db.SelectContext(ctx, &subscribers, query); err != nil {
		return nil, fmt.Errorf("list all subscribers: %w", err)
	}
	return subscribers, nil
}

// FindByID fetches a subscriber by ID.
func (r *SubscriberRepository) FindByID(ctx context.Context, id string) (*models.Subscriber, error) {
	query := fmt.Sprintf("SELECT %s FROM subscribers WHERE id = $1", subscriberColumns)
	var subscriber models.Subscriber
	if err := r.db.GetContext(ctx, &subscriber, query, id); err != nil {
		return nil, err
	}
	return &subscriber, nil
}

// Delete removes a subscriber, reporting whether a row was deleted.
func (r *SubscriberRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete subscriber: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subscriber rows: %w", err)
	}
	return affected > 0, nil
}
