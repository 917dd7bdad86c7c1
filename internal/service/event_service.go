package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/storage"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) (bool, error)
}

// SaveEventRequest holds payload for creating and updating events.
type SaveEventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Time        string    `json:"time" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Speaker     *string   `json:"speaker"`
	Attendees   int       `json:"attendees" validate:"gte=0"`
	Featured    bool      `json:"featured"`
}

// EventService handles calendar event use-cases.
type EventService struct {
	repo      eventRepository
	cache     *CacheService
	store     *storage.LocalStorage
	policy    UploadPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the event service.
func NewEventService(repo eventRepository, cache *CacheService, store *storage.LocalStorage, policy UploadPolicy, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, cache: cache, store: store, policy: policy, validator: validate, logger: logger}
}

type cachedEventList struct {
	Events []models.Event `json:"events"`
	Total  int            `json:"total"`
}

// List returns events and pagination metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}

	featured := "any"
	if filter.Featured != nil {
		featured = fmt.Sprintf("%t", *filter.Featured)
	}
	key := fmt.Sprintf("list:events:%s:%s:%s:%d:%d:%s:%s",
		filter.Search, filter.Category, featured, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	var cached cachedEventList
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Events, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	_ = s.cache.Set(ctx, key, cachedEventList{Events: events, Total: total}, 0)
	return events, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create stores a new event with an optional poster image.
func (s *EventService) Create(ctx context.Context, req SaveEventRequest, image *FileUpload) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Speaker:     normalizeOptional(req.Speaker),
		Attendees:   req.Attendees,
		Featured:    req.Featured,
	}
	var staged []stagedUpload
	if image != nil {
		sf, err := stageUpload(s.store, s.policy, "events", image)
		if err != nil {
			return nil, err
		}
		event.ImagePath = &sf.final
		staged = append(staged, sf)
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	promoteUploads(s.store, s.logger, staged...)
	s.invalidate(ctx)
	return event, nil
}

// Update modifies an existing event.
func (s *EventService) Update(ctx context.Context, id string, req SaveEventRequest, image *FileUpload) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Title = req.Title
	event.Description = req.Description
	event.Category = req.Category
	event.Date = req.Date
	event.Time = req.Time
	event.Location = req.Location
	event.Speaker = normalizeOptional(req.Speaker)
	event.Attendees = req.Attendees
	event.Featured = req.Featured
	var staged []stagedUpload
	var replaced *string
	if image != nil {
		sf, err := stageUpload(s.store, s.policy, "events", image)
		if err != nil {
			return nil, err
		}
		replaced = event.ImagePath
		event.ImagePath = &sf.final
		staged = append(staged, sf)
	}
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	promoteUploads(s.store, s.logger, staged...)
	if replaced != nil {
		if err := s.store.Delete(*replaced); err != nil {
			s.logger.Warn("failed to remove replaced event image", zap.String("path", *replaced), zap.Error(err))
		}
	}
	s.invalidate(ctx)
	return event, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *EventService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "list:events:*"); err != nil {
		s.logger.Warn("failed to invalidate event cache", zap.Error(err))
	}
}
