package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.AdminFilter) ([]models.AdminUser, int, error)
	FindByID(ctx context.Context, id string) (*models.AdminUser, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, admin *models.AdminUser) error
	Update(ctx context.Context, admin *models.AdminUser) error
	Delete(ctx context.Context, id string) (bool, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateAdminRequest holds payload for creating admin accounts.
type CreateAdminRequest struct {
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required,min=8"`
	FullName string           `json:"fullName" validate:"required"`
	Role     models.AdminRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN EDITOR"`
}

// UpdateAdminRequest holds payload for updating admin accounts. A blank
// password keeps the current one.
type UpdateAdminRequest struct {
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"omitempty,min=8"`
	FullName string           `json:"fullName" validate:"required"`
	Role     models.AdminRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN EDITOR"`
	Active   bool             `json:"active"`
}

// UserService manages admin accounts.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the admin account service.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns admin accounts and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.AdminFilter) ([]models.AdminUser, *models.Pagination, error) {
	admins, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	return admins, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one admin account.
func (s *UserService) Get(ctx context.Context, id string) (*models.AdminUser, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	return admin, nil
}

// Create registers a new admin account.
func (s *UserService) Create(ctx context.Context, req CreateAdminRequest, actor *models.Session) (*models.AdminUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	admin := &models.AdminUser{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}
	s.writeAudit(ctx, actor, models.AuditActionAdminCreate, admin.ID)
	return admin, nil
}

// Update modifies an existing admin account.
func (s *UserService) Update(ctx context.Context, id string, req UpdateAdminRequest, actor *models.Session) (*models.AdminUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}
	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	admin.Email = req.Email
	admin.FullName = req.FullName
	admin.Role = req.Role
	admin.Active = req.Active
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		admin.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admin")
	}
	s.writeAudit(ctx, actor, models.AuditActionAdminUpdate, admin.ID)
	return admin, nil
}

// Delete removes an admin account. Self-deletion is rejected so the last
// acting superadmin cannot lock everyone out mid-session.
func (s *UserService) Delete(ctx context.Context, id string, actor *models.Session) error {
	if actor != nil && actor.UserID == id {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete the account you are signed in with")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete admin")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
	}
	s.writeAudit(ctx, actor, models.AuditActionAdminDelete, id)
	return nil
}

func (s *UserService) writeAudit(ctx context.Context, actor *models.Session, action, resourceID string) {
	log := &models.AuditLog{
		Action:     action,
		Resource:   "admin_users",
		ResourceID: &resourceID,
	}
	if actor != nil {
		log.UserID = &actor.UserID
		log.IPAddress = actor.IPAddress
		log.UserAgent = actor.UserAgent
	}
	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write admin audit log", zap.Error(err))
	}
}
