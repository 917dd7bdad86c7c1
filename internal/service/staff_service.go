package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/storage"
)

type staffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.StaffMember, int, error)
	FindByID(ctx context.Context, id string) (*models.StaffMember, error)
	Create(ctx context.Context, member *models.StaffMember) error
	Update(ctx context.Context, member *models.StaffMember) error
	Delete(ctx context.Context, id string) (bool, error)
}

// CreateStaffRequest holds payload for creating staff records.
type CreateStaffRequest struct {
	FullName   string  `json:"fullName" validate:"required"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
	Role       string  `json:"role" validate:"required"`
	Department string  `json:"department" validate:"required"`
	Position   *string `json:"position"`
	Bio        *string `json:"bio"`
}

// UpdateStaffRequest holds payload for updating staff records.
type UpdateStaffRequest struct {
	FullName   string  `json:"fullName" validate:"required"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
	Role       string  `json:"role" validate:"required"`
	Department string  `json:"department" validate:"required"`
	Position   *string `json:"position"`
	Bio        *string `json:"bio"`
	Active     bool    `json:"active"`
}

// StaffService handles staff directory use-cases.
type StaffService struct {
	repo      staffRepository
	cache     *CacheService
	store     *storage.LocalStorage
	policy    UploadPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService constructs the staff service.
func NewStaffService(repo staffRepository, cache *CacheService, store *storage.LocalStorage, policy UploadPolicy, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{repo: repo, cache: cache, store: store, policy: policy, validator: validate, logger: logger}
}

type cachedStaffList struct {
	Members []models.StaffMember `json:"members"`
	Total   int                  `json:"total"`
}

// List returns staff members and pagination metadata.
func (s *StaffService) List(ctx context.Context, filter models.StaffFilter) ([]models.StaffMember, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}

	key := staffListKey(filter)
	var cached cachedStaffList
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Members, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
	}

	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}
	_ = s.cache.Set(ctx, key, cachedStaffList{Members: members, Total: total}, 0)
	return members, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func staffListKey(filter models.StaffFilter) string {
	active := "any"
	if filter.Active != nil {
		active = fmt.Sprintf("%t", *filter.Active)
	}
	return fmt.Sprintf("list:staff:%s:%s:%s:%s:%d:%d:%s:%s",
		filter.Search, filter.Role, filter.Department, active,
		filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
}

// Get returns one staff member.
func (s *StaffService) Get(ctx context.Context, id string) (*models.StaffMember, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff member")
	}
	return member, nil
}

// Create registers a staff member, storing the profile image when provided.
func (s *StaffService) Create(ctx context.Context, req CreateStaffRequest, image *FileUpload) (*models.StaffMember, error) {
	req.Email = normalizeOptional(req.Email)
	req.Phone = normalizeOptional(req.Phone)
	req.Position = normalizeOptional(req.Position)
	req.Bio = normalizeOptional(req.Bio)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}
	member := &models.StaffMember{
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		Role:       req.Role,
		Department: req.Department,
		Position:   req.Position,
		Bio:        req.Bio,
		Active:     true,
	}
	var staged []stagedUpload
	if image != nil {
		sf, err := stageUpload(s.store, s.policy, "staff", image)
		if err != nil {
			return nil, err
		}
		member.ImagePath = &sf.final
		staged = append(staged, sf)
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff member")
	}
	promoteUploads(s.store, s.logger, staged...)
	s.invalidate(ctx)
	return member, nil
}

// Update modifies an existing staff member. A new image replaces the stored
// one; the old file is removed only after the row is persisted, so a failed
// update keeps the stored image intact.
func (s *StaffService) Update(ctx context.Context, id string, req UpdateStaffRequest, image *FileUpload) (*models.StaffMember, error) {
	req.Email = normalizeOptional(req.Email)
	req.Phone = normalizeOptional(req.Phone)
	req.Position = normalizeOptional(req.Position)
	req.Bio = normalizeOptional(req.Bio)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	member.FullName = req.FullName
	member.Email = req.Email
	member.Phone = req.Phone
	member.Role = req.Role
	member.Department = req.Department
	member.Position = req.Position
	member.Bio = req.Bio
	member.Active = req.Active
	var staged []stagedUpload
	var replaced *string
	if image != nil {
		sf, err := stageUpload(s.store, s.policy, "staff", image)
		if err != nil {
			return nil, err
		}
		replaced = member.ImagePath
		member.ImagePath = &sf.final
		staged = append(staged, sf)
	}
	if err := s.repo.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update staff member")
	}
	promoteUploads(s.store, s.logger, staged...)
	if replaced != nil {
		if err := s.store.Delete(*replaced); err != nil {
			s.logger.Warn("failed to remove replaced staff image", zap.String("path", *replaced), zap.Error(err))
		}
	}
	s.invalidate(ctx)
	return member, nil
}

// Delete removes a staff member.
func (s *StaffService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete staff member")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *StaffService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "list:staff:*"); err != nil {
		s.logger.Warn("failed to invalidate staff cache", zap.Error(err))
	}
}
