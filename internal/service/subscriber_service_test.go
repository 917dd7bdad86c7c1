package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
)

type mockSubscriberRepo struct {
	items map[string]*models.Subscriber
	all   []models.Subscriber
}

func (m *mockSubscriberRepo) List(ctx context.Context, filter models.SubscriberFilter) ([]models.Subscriber, int, error) {
	return m.all, len(m.all), nil
}

func (m *mockSubscriberRepo) ListAll(ctx context.Context) ([]models.Subscriber, error) {
	return m.all, nil
}

func (m *mockSubscriberRepo) FindByID(ctx context.Context, id string) (*models.Subscriber, error) {
	if sub, ok := m.items[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubscriberRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func TestSubscriberServiceExportCSV(t *testing.T) {
	name := "A Parent"
	repo := &mockSubscriberRepo{all: []models.Subscriber{
		{ID: "sub1", Email: "parent@example.com", Name: &name, Subscribed: true, SubscribedAt: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		{ID: "sub2", Email: "former@example.com", Subscribed: false, SubscribedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}}
	svc := NewSubscriberService(repo, nil, nil)

	data, err := svc.ExportCSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Email,Name,Status,Subscribed At", lines[0])
	assert.Equal(t, "parent@example.com,A Parent,subscribed,2026-03-14", lines[1])
	assert.Equal(t, "former@example.com,,unsubscribed,2026-01-02", lines[2])
}

func TestSubscriberServiceDeleteNotFound(t *testing.T) {
	svc := NewSubscriberService(&mockSubscriberRepo{items: map[string]*models.Subscriber{}}, nil, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
