package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfield-academy/admin-api/internal/models"
)

func campaignRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "subject", "content", "recipient_group", "status", "attachments", "recipient_count", "sent_count", "failed_count", "sent_at", "created_by", "created_at", "updated_at"})
}

func TestCampaignRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	rows := campaignRows().
		AddRow("c1", "Term dates", "<p>Hello</p>", "parents", "draft", "[]", 0, 0, 0, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM email_campaigns WHERE 1=1 AND status = $1")).
		WithArgs("draft").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("draft").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.CampaignFilter{Status: models.CampaignStatusDraft})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Empty(t, list[0].Attachments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryAttachmentsRoundTrip(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	raw := `[{"id":"a1","filename":"letter.pdf","path":"attachments/a1.pdf","mimeType":"application/pdf","size":1024}]`
	rows := campaignRows().
		AddRow("c1", "Term dates", "<p>Hello</p>", "parents", "draft", raw, 0, 0, 0, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM email_campaigns WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(rows)

	campaign, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, campaign.Attachments, 1)
	assert.Equal(t, "letter.pdf", campaign.Attachments[0].Filename)
	assert.Equal(t, int64(1024), campaign.Attachments[0].Size)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryTransitionStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_campaigns SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("c1", "draft", "sending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_campaigns SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("c1", "draft", "sending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	moved, err := repo.TransitionStatus(context.Background(), "c1", models.CampaignStatusDraft, models.CampaignStatusSending)
	require.NoError(t, err)
	assert.True(t, moved)

	// second transition finds the row already in sending state
	moved, err = repo.TransitionStatus(context.Background(), "c1", models.CampaignStatusDraft, models.CampaignStatusSending)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryRecordDelivery(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	sentAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_campaigns SET recipient_count = $2, sent_count = $3, failed_count = $4, sent_at = $5, updated_at = $6 WHERE id = $1")).
		WithArgs("c1", 120, 118, 2, sentAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordDelivery(context.Background(), "c1", 120, 118, 2, sentAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}
