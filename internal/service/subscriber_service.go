package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/export"
)

type subscriberRepository interface {
	List(ctx context.Context, filter models.SubscriberFilter) ([]models.Subscriber, int, error)
	ListAll(ctx context.Context) ([]models.Subscriber, error)
	FindByID(ctx context.Context, id string) (*models.Subscriber, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// SubscriberService manages newsletter subscriptions.
type SubscriberService struct {
	repo   subscriberRepository
	csv    *export.CSVExporter
	logger *zap.Logger
}

// NewSubscriberService constructs the subscriber service.
func NewSubscriberService(repo subscriberRepository, csv *export.CSVExporter, logger *zap.Logger) *SubscriberService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriberService{repo: repo, csv: csv, logger: logger}
}

// List returns subscribers and pagination metadata.
func (s *SubscriberService) List(ctx context.Context, filter models.SubscriberFilter) ([]models.Subscriber, *models.Pagination, error) {
	subscribers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subscribers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	return subscribers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one subscriber.
func (s *SubscriberService) Get(ctx context.Context, id string) (*models.Subscriber, error) {
	subscriber, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subscriber not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscriber")
	}
	return subscriber, nil
}

// Delete removes a subscription.
func (s *SubscriberService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subscriber")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "subscriber not found")
	}
	return nil
}

// ExportCSV renders the full subscriber list as a CSV document.
func (s *SubscriberService) ExportCSV(ctx context.Context) ([]byte, error) {
	subscribers, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscribers")
	}
	rows := make([]map[string]string, 0, len(subscribers))
	for _, sub := range subscribers {
		name := ""
		if sub.Name != nil {
			name = *sub.Name
		}
		status := "subscribed"
		if !sub.Subscribed {
			status = "unsubscribed"
		}
		rows = append(rows, map[string]string{
			"Email":         sub.Email,
			"Name":          name,
			"Status":        status,
			"Subscribed At": sub.SubscribedAt.Format("2006-01-02"),
		})
	}
	data, err := s.csv.Render(export.Dataset{
		Headers: []string{"Email", "Name", "Status", "Subscribed At"},
		Rows:    rows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render subscriber export")
	}
	return data, nil
}
