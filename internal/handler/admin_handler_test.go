package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/greenfield-academy/admin-api/internal/models"
	"github.com/greenfield-academy/admin-api/internal/service"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
)

type fakeAuthAdminRepo struct {
	admins map[string]*models.AdminUser
	audits []models.AuditLog
}

func (f *fakeAuthAdminRepo) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	for _, a := range f.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthAdminRepo) FindByID(ctx context.Context, id string) (*models.AdminUser, error) {
	if a, ok := f.admins[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthAdminRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (f *fakeAuthAdminRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.audits = append(f.audits, *log)
	return nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func (f *fakeSessionStore) Save(ctx context.Context, session *models.Session, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessions == nil {
		f.sessions = make(map[string]*models.Session)
	}
	f.sessions[session.DeviceToken] = session
	return nil
}

func (f *fakeSessionStore) Find(ctx context.Context, deviceToken string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[deviceToken]; ok {
		return s, nil
	}
	return nil, appErrors.Clone(appErrors.ErrCacheMiss, "session not found")
}

func (f *fakeSessionStore) Delete(ctx context.Context, deviceToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, deviceToken)
	return nil
}

func newAdminHandlerForTest(t *testing.T) (*AdminHandler, *fakeAuthAdminRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeAuthAdminRepo{admins: map[string]*models.AdminUser{
		"a1": {ID: "a1", Email: "head@greenfield.test", PasswordHash: string(hash),
			FullName: "Head Admin", Role: models.RoleSuperAdmin, Active: true},
	}}
	auth := service.NewAuthService(repo, &fakeSessionStore{}, nil, nil, service.AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "admin-api-test",
	})
	return NewAdminHandler(auth, nil), repo
}

func TestAdminHandlerLoginSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newAdminHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := `{"email":"head@greenfield.test","password":"correct-horse"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var payload models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.NotEmpty(t, payload.AdminToken)
	assert.NotEmpty(t, payload.DeviceToken)
	assert.Equal(t, "head@greenfield.test", payload.User.Email)
}

func TestAdminHandlerLoginBadPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newAdminHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := `{"email":"head@greenfield.test","password":"wrong"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var payload struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "invalid email or password", payload.Error)
}

func TestAdminHandlerLoginInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newAdminHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
