package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/jobs"
	"github.com/greenfield-academy/admin-api/pkg/mailer"
	"github.com/greenfield-academy/admin-api/pkg/messaging"
	"github.com/greenfield-academy/admin-api/pkg/storage"
)

func jobFor(id, group string, emails []string) jobs.Job {
	return jobs.Job{ID: "j1", Type: "campaign.dispatch", Payload: dispatchJob{CampaignID: id, Group: group, Emails: emails}}
}

type mockCampaignRepo struct {
	mu           sync.Mutex
	items        map[string]*models.EmailCampaign
	transitionOK bool
	updateErr    error
	delivered    chan struct{}

	recordedRecipients int
	recordedSent       int
	recordedFailed     int
	finalStatus        models.CampaignStatus
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{
		items:        make(map[string]*models.EmailCampaign),
		transitionOK: true,
		delivered:    make(chan struct{}, 1),
	}
}

func (m *mockCampaignRepo) List(ctx context.Context, filter models.CampaignFilter) ([]models.EmailCampaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EmailCampaign
	for _, c := range m.items {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCampaignRepo) FindByID(ctx context.Context, id string) (*models.EmailCampaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCampaignRepo) Create(ctx context.Context, campaign *models.EmailCampaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if campaign.ID == "" {
		campaign.ID = "generated"
	}
	cp := *campaign
	m.items[campaign.ID] = &cp
	return nil
}

func (m *mockCampaignRepo) Update(ctx context.Context, campaign *models.EmailCampaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *campaign
	m.items[campaign.ID] = &cp
	return nil
}

func (m *mockCampaignRepo) TransitionStatus(ctx context.Context, id string, from, to models.CampaignStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.transitionOK {
		return false, nil
	}
	if c, ok := m.items[id]; ok {
		c.Status = to
	}
	m.finalStatus = to
	return true, nil
}

func (m *mockCampaignRepo) RecordDelivery(ctx context.Context, id string, recipients, sent, failed int, sentAt time.Time) error {
	m.mu.Lock()
	m.recordedRecipients = recipients
	m.recordedSent = sent
	m.recordedFailed = failed
	m.mu.Unlock()
	select {
	case m.delivered <- struct{}{}:
	default:
	}
	return nil
}

func (m *mockCampaignRepo) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

type mockStaffLister struct {
	staff []models.StaffMember
}

func (m *mockStaffLister) ListActive(ctx context.Context) ([]models.StaffMember, error) {
	return m.staff, nil
}

type mockContactLister struct {
	contacts []models.Contact
}

func (m *mockContactLister) ListAll(ctx context.Context) ([]models.Contact, error) {
	return m.contacts, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []messaging.CampaignEvent
}

func (m *mockPublisher) PublishCampaignEvent(ctx context.Context, evt messaging.CampaignEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) Events() []messaging.CampaignEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]messaging.CampaignEvent, len(m.events))
	copy(out, m.events)
	return out
}

func strptr(s string) *string { return &s }

func testAudience() (*mockContactLister, *mockStaffLister) {
	contacts := &mockContactLister{contacts: []models.Contact{
		{ID: "p1", Email: strptr("parent1@example.com")},
		{ID: "p2", Email: strptr("parent2@example.com")},
		{ID: "p3"},
	}}
	staff := &mockStaffLister{staff: []models.StaffMember{
		{ID: "s1", FullName: "Jane", Email: strptr("jane@school.org"), Role: "Teacher", Department: "Sciences"},
		{ID: "s2", FullName: "Pat", Email: strptr("pat@school.org"), Role: "Principal", Department: "Administration"},
	}}
	return contacts, staff
}

func newTestCampaignService(t *testing.T, repo *mockCampaignRepo, mail mailer.Mailer, publisher messaging.Publisher, batch int) *CampaignService {
	t.Helper()
	contacts, staff := testAudience()
	svc := NewCampaignService(repo, staff, contacts, nil, nil, nil, nil, UploadPolicy{}, mail, publisher, nil,
		CampaignOptions{BatchSize: batch, WorkerConcurrency: 1}, nil, zap.NewNop())
	return svc
}

func TestCampaignServicePublishDispatches(t *testing.T) {
	repo := newMockCampaignRepo()
	repo.items["c1"] = &models.EmailCampaign{ID: "c1", Subject: "Term dates", Content: "<p>Hi</p>", RecipientGroup: "parents", Status: models.CampaignStatusDraft}

	mail := mailer.NewConsoleMailer(nil)
	publisher := &mockPublisher{}
	svc := newTestCampaignService(t, repo, mail, publisher, 50)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.StartWorkers(ctx)
	defer svc.StopWorkers()

	campaign, err := svc.Publish(ctx, "c1", &models.Session{UserID: "admin1"})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusSending, campaign.Status)
	assert.Equal(t, 2, campaign.RecipientCount)

	select {
	case <-repo.delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not complete")
	}

	repo.mu.Lock()
	assert.Equal(t, 2, repo.recordedRecipients)
	assert.Equal(t, 2, repo.recordedSent)
	assert.Equal(t, 0, repo.recordedFailed)
	repo.mu.Unlock()

	require.Eventually(t, func() bool { return len(publisher.Events()) == 1 }, 2*time.Second, 10*time.Millisecond)
	evt := publisher.Events()[0]
	assert.Equal(t, "c1", evt.CampaignID)
	assert.Equal(t, "sent", evt.Status)

	sent := mail.Sent()
	require.Len(t, sent, 1)
	assert.ElementsMatch(t, []string{"parent1@example.com", "parent2@example.com"}, sent[0].Recipients)
}

func TestCampaignServicePublishSerializesConcurrentSends(t *testing.T) {
	repo := newMockCampaignRepo()
	repo.transitionOK = false
	repo.items["c1"] = &models.EmailCampaign{ID: "c1", Subject: "Term dates", Content: "x", RecipientGroup: "parents", Status: models.CampaignStatusSending}

	svc := newTestCampaignService(t, repo, mailer.NewConsoleMailer(nil), &mockPublisher{}, 50)

	_, err := svc.Publish(context.Background(), "c1", nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyPublished.Code, appErr.Code)
}

func TestCampaignServiceSendRejectsEmptyGroup(t *testing.T) {
	repo := newMockCampaignRepo()
	contacts := &mockContactLister{}
	staff := &mockStaffLister{}
	svc := NewCampaignService(repo, staff, contacts, nil, nil, nil, nil, UploadPolicy{}, mailer.NewConsoleMailer(nil), nil, nil,
		CampaignOptions{}, nil, zap.NewNop())

	_, err := svc.Send(context.Background(), SendCampaignRequest{Group: "parents", Subject: "s", Content: "c"}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNoRecipients.Code, appErr.Code)
	assert.Empty(t, repo.items)
}

func TestCampaignServiceSendRejectsUnknownGroup(t *testing.T) {
	repo := newMockCampaignRepo()
	svc := newTestCampaignService(t, repo, mailer.NewConsoleMailer(nil), &mockPublisher{}, 50)

	_, err := svc.Send(context.Background(), SendCampaignRequest{Group: "everyone-ever", Subject: "s", Content: "c"}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCampaignServiceDispatchBatches(t *testing.T) {
	repo := newMockCampaignRepo()
	repo.items["c1"] = &models.EmailCampaign{ID: "c1", Subject: "Bulk", Content: "x", RecipientGroup: "parents", Status: models.CampaignStatusSending}

	mail := mailer.NewConsoleMailer(nil)
	svc := newTestCampaignService(t, repo, mail, &mockPublisher{}, 2)

	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	err := svc.handleDispatch(context.Background(), jobFor("c1", "parents", emails))
	require.NoError(t, err)

	sent := mail.Sent()
	require.Len(t, sent, 3)
	assert.Len(t, sent[0].Recipients, 2)
	assert.Len(t, sent[2].Recipients, 1)

	repo.mu.Lock()
	assert.Equal(t, 5, repo.recordedSent)
	assert.Equal(t, models.CampaignStatusSent, repo.finalStatus)
	repo.mu.Unlock()
}

func TestCampaignServiceUpdateRejectsSent(t *testing.T) {
	repo := newMockCampaignRepo()
	repo.items["c1"] = &models.EmailCampaign{ID: "c1", Subject: "Done", Content: "x", RecipientGroup: "parents", Status: models.CampaignStatusSent}

	svc := newTestCampaignService(t, repo, mailer.NewConsoleMailer(nil), &mockPublisher{}, 50)

	_, err := svc.Update(context.Background(), "c1", SaveCampaignRequest{Subject: "New", Content: "y", RecipientGroup: "parents"}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyPublished.Code, appErr.Code)
}

func TestCampaignServiceGroups(t *testing.T) {
	repo := newMockCampaignRepo()
	svc := newTestCampaignService(t, repo, mailer.NewConsoleMailer(nil), &mockPublisher{}, 50)

	groups, err := svc.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 7)
	assert.Equal(t, "all", string(groups[0].Value))
	// 2 usable parent addresses plus 2 staff addresses
	assert.Equal(t, 4, groups[0].Count)
}

func newStoreBackedCampaignService(t *testing.T, repo *mockCampaignRepo) (*CampaignService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	contacts, staff := testAudience()
	svc := NewCampaignService(repo, staff, contacts, nil, nil, store, nil, UploadPolicy{},
		mailer.NewConsoleMailer(nil), nil, nil, CampaignOptions{BatchSize: 50, WorkerConcurrency: 1}, nil, zap.NewNop())
	return svc, store
}

func draftWithAttachment(t *testing.T, store *storage.LocalStorage) *models.EmailCampaign {
	t.Helper()
	stored, err := store.Save("attachments/att-1.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	return &models.EmailCampaign{
		ID:             "c1",
		Subject:        "Term dates",
		Content:        "<p>Hi</p>",
		RecipientGroup: "parents",
		Status:         models.CampaignStatusDraft,
		Attachments: models.AttachmentList{
			{ID: "att-1", Filename: "letter.pdf", Path: stored, MimeType: "application/pdf", Size: 8},
		},
	}
}

func TestCampaignServiceUpdateKeepsFilesWhenPersistFails(t *testing.T) {
	repo := newMockCampaignRepo()
	svc, store := newStoreBackedCampaignService(t, repo)
	repo.items["c1"] = draftWithAttachment(t, store)
	repo.updateErr = errors.New("connection reset")

	// Empty KeepAttachments drops att-1, but the repository write fails.
	_, err := svc.Update(context.Background(), "c1", SaveCampaignRequest{Subject: "New", Content: "<p>New</p>", RecipientGroup: "parents"}, nil)
	require.Error(t, err)

	_, statErr := os.Stat(store.Path("attachments/att-1.pdf"))
	require.NoError(t, statErr, "stored attachment must survive a failed update")
}

func TestCampaignServiceUpdateRemovesDroppedAttachmentOncePersisted(t *testing.T) {
	repo := newMockCampaignRepo()
	svc, store := newStoreBackedCampaignService(t, repo)
	repo.items["c1"] = draftWithAttachment(t, store)

	updated, err := svc.Update(context.Background(), "c1", SaveCampaignRequest{Subject: "New", Content: "<p>New</p>", RecipientGroup: "parents"}, nil)
	require.NoError(t, err)
	assert.Empty(t, updated.Attachments)

	_, statErr := os.Stat(store.Path("attachments/att-1.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}
