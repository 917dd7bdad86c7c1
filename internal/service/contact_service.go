package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/greenfield-academy/admin-api/internal/mailing"
	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
)

type contactRepository interface {
	List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, int, error)
	ListAll(ctx context.Context) ([]models.Contact, error)
}

// ContactService exposes the guardian contact directory.
type ContactService struct {
	repo   contactRepository
	logger *zap.Logger
}

// NewContactService constructs the contact service.
func NewContactService(repo contactRepository, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{repo: repo, logger: logger}
}

// List returns contacts and pagination metadata.
func (s *ContactService) List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, *models.Pagination, error) {
	contacts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contacts")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	return contacts, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// toMailingContacts converts stored rows into the resolver's contact shape.
func toMailingContacts(contacts []models.Contact) []mailing.Contact {
	out := make([]mailing.Contact, 0, len(contacts))
	for _, c := range contacts {
		email := ""
		if c.Email != nil {
			email = *c.Email
		}
		out = append(out, mailing.Contact{Email: email})
	}
	return out
}

// toMailingStaff converts staff rows into the resolver's staff shape.
func toMailingStaff(members []models.StaffMember) []mailing.StaffMember {
	out := make([]mailing.StaffMember, 0, len(members))
	for _, m := range members {
		email := ""
		if m.Email != nil {
			email = *m.Email
		}
		position := ""
		if m.Position != nil {
			position = *m.Position
		}
		out = append(out, mailing.StaffMember{
			Email:      email,
			Role:       m.Role,
			Department: m.Department,
			Position:   position,
		})
	}
	return out
}
