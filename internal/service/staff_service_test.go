package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/storage"
)

type mockStaffRepo struct {
	items      map[string]*models.StaffMember
	listResult []models.StaffMember
	listTotal  int
	listErr    error
	updateErr  error
}

func (m *mockStaffRepo) List(ctx context.Context, filter models.StaffFilter) ([]models.StaffMember, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockStaffRepo) FindByID(ctx context.Context, id string) (*models.StaffMember, error) {
	if member, ok := m.items[id]; ok {
		cp := *member
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffRepo) Create(ctx context.Context, member *models.StaffMember) error {
	if m.items == nil {
		m.items = make(map[string]*models.StaffMember)
	}
	if member.ID == "" {
		member.ID = "generated"
	}
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now
	cp := *member
	m.items[member.ID] = &cp
	return nil
}

func (m *mockStaffRepo) Update(ctx context.Context, member *models.StaffMember) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *member
	m.items[member.ID] = &cp
	return nil
}

func (m *mockStaffRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

type mockCacheRepo struct {
	entries  map[string][]byte
	patterns []string
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	m.entries = nil
	return nil
}

func TestStaffServiceCreate(t *testing.T) {
	repo := &mockStaffRepo{}
	cache := &mockCacheRepo{}
	svc := NewStaffService(repo, NewCacheService(cache, nil, 0, nil, true), nil, UploadPolicy{}, nil, nil)

	email := " jane@school.org "
	member, err := svc.Create(context.Background(), CreateStaffRequest{
		FullName:   "Jane Teacher",
		Email:      &email,
		Role:       "Teacher",
		Department: "Sciences",
	}, nil)
	require.NoError(t, err)
	assert.True(t, member.Active)
	require.NotNil(t, member.Email)
	assert.Equal(t, "jane@school.org", *member.Email)
	assert.Equal(t, []string{"list:staff:*"}, cache.patterns)
}

func TestStaffServiceListCachesResults(t *testing.T) {
	repo := &mockStaffRepo{
		listResult: []models.StaffMember{{ID: "s1", FullName: "Jane", Role: "Teacher", Department: "Sciences"}},
		listTotal:  1,
	}
	cache := &mockCacheRepo{}
	svc := NewStaffService(repo, NewCacheService(cache, nil, 0, nil, true), nil, UploadPolicy{}, nil, nil)

	members, pagination, err := svc.List(context.Background(), models.StaffFilter{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, 1, pagination.TotalCount)

	// The second read must be served from cache, not from the repository.
	repo.listResult = nil
	repo.listTotal = 0
	members, pagination, err = svc.List(context.Background(), models.StaffFilter{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Jane", members[0].FullName)
	assert.Equal(t, 1, pagination.TotalCount)

	// Mutations invalidate the namespace and reads fall through again.
	_, err = svc.Create(context.Background(), CreateStaffRequest{FullName: "New", Role: "Support Staff", Department: "Facilities"}, nil)
	require.NoError(t, err)
	members, _, err = svc.List(context.Background(), models.StaffFilter{})
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestStaffServiceCreateValidates(t *testing.T) {
	svc := NewStaffService(&mockStaffRepo{}, nil, nil, UploadPolicy{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateStaffRequest{FullName: "No Role"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	bad := "not-an-email"
	_, err = svc.Create(context.Background(), CreateStaffRequest{FullName: "X", Role: "Teacher", Department: "Sciences", Email: &bad}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStaffServiceGetNotFound(t *testing.T) {
	svc := NewStaffService(&mockStaffRepo{}, nil, nil, UploadPolicy{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStaffServiceUpdateBlankEmailClears(t *testing.T) {
	email := "old@school.org"
	repo := &mockStaffRepo{items: map[string]*models.StaffMember{
		"s1": {ID: "s1", FullName: "Jane", Email: &email, Role: "Teacher", Department: "Sciences", Active: true},
	}}
	svc := NewStaffService(repo, nil, nil, UploadPolicy{}, nil, nil)

	blank := "   "
	member, err := svc.Update(context.Background(), "s1", UpdateStaffRequest{
		FullName:   "Jane",
		Email:      &blank,
		Role:       "Teacher",
		Department: "Sciences",
		Active:     true,
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, member.Email)
}

func TestStaffServiceDelete(t *testing.T) {
	repo := &mockStaffRepo{items: map[string]*models.StaffMember{
		"s1": {ID: "s1", FullName: "Jane", Role: "Teacher", Department: "Sciences"},
	}}
	cache := &mockCacheRepo{}
	svc := NewStaffService(repo, NewCacheService(cache, nil, 0, nil, true), nil, UploadPolicy{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Empty(t, repo.items)

	err := svc.Delete(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStaffServiceUpdateKeepsImageWhenPersistFails(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	stored, err := store.Save("staff/old.png", []byte("old-img"))
	require.NoError(t, err)

	repo := &mockStaffRepo{items: map[string]*models.StaffMember{
		"s1": {ID: "s1", FullName: "Jane", Role: "Teacher", Department: "Sciences", ImagePath: &stored, Active: true},
	}}
	repo.updateErr = errors.New("connection reset")
	svc := NewStaffService(repo, nil, store, UploadPolicy{}, nil, nil)

	image := &FileUpload{Filename: "new.png", Size: 7, MimeType: "image/png", Content: strings.NewReader("new-img")}
	_, err = svc.Update(context.Background(), "s1", UpdateStaffRequest{FullName: "Jane", Role: "Teacher", Department: "Sciences", Active: true}, image)
	require.Error(t, err)

	_, statErr := os.Stat(store.Path("staff/old.png"))
	require.NoError(t, statErr, "stored image must survive a failed update")
	member, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, stored, *member.ImagePath)
}

func TestStaffServiceUpdateReplacesImageOncePersisted(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	stored, err := store.Save("staff/old.png", []byte("old-img"))
	require.NoError(t, err)

	repo := &mockStaffRepo{items: map[string]*models.StaffMember{
		"s1": {ID: "s1", FullName: "Jane", Role: "Teacher", Department: "Sciences", ImagePath: &stored, Active: true},
	}}
	svc := NewStaffService(repo, nil, store, UploadPolicy{}, nil, nil)

	image := &FileUpload{Filename: "new.png", Size: 7, MimeType: "image/png", Content: strings.NewReader("new-img")}
	updated, err := svc.Update(context.Background(), "s1", UpdateStaffRequest{FullName: "Jane", Role: "Teacher", Department: "Sciences", Active: true}, image)
	require.NoError(t, err)
	require.NotNil(t, updated.ImagePath)
	assert.True(t, strings.HasPrefix(*updated.ImagePath, "staff/"))

	_, statErr := os.Stat(store.Path(*updated.ImagePath))
	require.NoError(t, statErr, "new image must be promoted out of staging")
	_, statErr = os.Stat(store.Path("staff/old.png"))
	assert.True(t, os.IsNotExist(statErr))
}
