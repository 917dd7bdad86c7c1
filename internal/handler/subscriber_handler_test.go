package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfield-academy/admin-api/internal/models"
	"github.com/greenfield-academy/admin-api/internal/service"
)

type fakeSubscriberRepo struct {
	subscribers []models.Subscriber
}

func (f *fakeSubscriberRepo) List(ctx context.Context, filter models.SubscriberFilter) ([]models.Subscriber, int, error) {
	return f.subscribers, len(f.subscribers), nil
}

func (f *fakeSubscriberRepo) ListAll(ctx context.Context) ([]models.Subscriber, error) {
	return f.subscribers, nil
}

func (f *fakeSubscriberRepo) FindByID(ctx context.Context, id string) (*models.Subscriber, error) {
	for _, s := range f.subscribers {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubscriberRepo) Delete(ctx context.Context, id string) (bool, error) {
	for i, s := range f.subscribers {
		if s.ID == id {
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newSubscriberHandlerForTest(repo *fakeSubscriberRepo) *SubscriberHandler {
	return NewSubscriberHandler(service.NewSubscriberService(repo, nil, nil))
}

func TestSubscriberHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeSubscriberRepo{subscribers: []models.Subscriber{
		{ID: "s1", Email: "parent@example.com", Subscribed: true, SubscribedAt: time.Now()},
	}}
	handler := newSubscriberHandlerForTest(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/subscriber", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Success     bool                `json:"success"`
		Subscribers []models.Subscriber `json:"subscribers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	require.Len(t, payload.Subscribers, 1)
	assert.Equal(t, "parent@example.com", payload.Subscribers[0].Email)
}

func TestSubscriberHandlerDeleteNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSubscriberHandlerForTest(&fakeSubscriberRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/subscriber/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Delete(c)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var payload struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "subscriber not found", payload.Error)
}

func TestSubscriberHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	name := "A Parent"
	repo := &fakeSubscriberRepo{subscribers: []models.Subscriber{
		{ID: "s1", Email: "parent@example.com", Name: &name, Subscribed: true,
			SubscribedAt: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
	}}
	handler := newSubscriberHandlerForTest(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/subscriber/export", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "subscribers-")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Email,Name,Status,Subscribed At", strings.TrimSpace(lines[0]))
	assert.Equal(t, "parent@example.com,A Parent,subscribed,2026-03-14", strings.TrimSpace(lines[1]))
}
