package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/greenfield-academy/admin-api/internal/models"
)

// CampaignRepository manages persistence for email campaigns.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs a CampaignRepository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = "id, subject, content, recipient_group, status, attachments, recipient_count, sent_count, failed_count, sent_at, created_by, created_at, updated_at"

// List returns campaigns matching filters along with total count.
func (r *CampaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]models.EmailCampaign, int, error) {
	base := "FROM email_campaigns WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Group != "" {
		conditions = append(conditions, fmt.Sprintf("recipient_group = $%d", len(args)+1))
		args = append(args, filter.Group)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(subject) LIKE $%d OR LOWER(content) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]string{
		"subject":    "subject",
		"status":     "status",
		"sent_at":    "sent_at",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", campaignColumns, base, column, order, size, offset)
	var campaigns []models.EmailCampaign
	if err := r.db.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	return campaigns, total, nil
}

// FindByID fetches a campaign by ID.
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*models.EmailCampaign, error) {
	query := fmt.Sprintf("SELECT %s FROM email_campaigns WHERE id = $1", campaignColumns)
	var campaign models.EmailCampaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// Create inserts a new campaign.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.EmailCampaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if campaign.Status == "" {
		campaign.Status = models.CampaignStatusDraft
	}
	now := time.Now().UTC()
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}
	campaign.UpdatedAt = now

	const query = `INSERT INTO email_campaigns (id, subject, content, recipient_group, status, attachments, recipient_count, sent_count, failed_count, sent_at, created_by, created_at, updated_at)
		VALUES (:id, :subject, :content, :recipient_group, :status, :attachments, :recipient_count, :sent_count, :failed_count, :sent_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// Update modifies campaign content and attachments.
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.EmailCampaign) error {
	campaign.UpdatedAt = time.Now().UTC()
	const query = `UPDATE email_campaigns SET subject = :subject, content = :content, recipient_group = :recipient_group, attachments = :attachments, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return nil
}

// TransitionStatus atomically moves a campaign between lifecycle states.
// Reports false when the campaign was not in the expected state, which
// serializes concurrent sends of the same campaign.
func (r *CampaignRepository) TransitionStatus(ctx context.Context, id string, from, to models.CampaignStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE email_campaigns SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, from, to, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("transition campaign status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition campaign rows: %w", err)
	}
	return affected > 0, nil
}

// RecordDelivery stores final delivery stats and stamps the send time.
func (r *CampaignRepository) RecordDelivery(ctx context.Context, id string, recipients, sent, failed int, sentAt time.Time) error {
	const query = `UPDATE email_campaigns SET recipient_count = $2, sent_count = $3, failed_count = $4, sent_at = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, recipients, sent, failed, sentAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("record campaign delivery: %w", err)
	}
	return nil
}

// Delete removes a campaign, reporting whether a row was deleted.
func (r *CampaignRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM email_campaigns WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete campaign rows: %w", err)
	}
	return affected > 0, nil
}
