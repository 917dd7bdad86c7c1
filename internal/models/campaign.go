package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CampaignStatus tracks a campaign through its lifecycle.
type CampaignStatus string

const (
	CampaignStatusDraft   CampaignStatus = "draft"
	CampaignStatusSending CampaignStatus = "sending"
	CampaignStatusSent    CampaignStatus = "sent"
	CampaignStatusFailed  CampaignStatus = "failed"
)

// Attachment describes a stored campaign attachment.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// AttachmentList is stored as a JSONB column.
type AttachmentList []Attachment

// Value implements driver.Valuer.
func (a AttachmentList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal attachments: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (a *AttachmentList) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported attachment scan type %T", src)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}
	return json.Unmarshal(raw, a)
}

// EmailCampaign represents a bulk mail campaign with its delivery stats.
type EmailCampaign struct {
	ID             string         `db:"id" json:"id"`
	Subject        string         `db:"subject" json:"subject"`
	Content        string         `db:"content" json:"content"`
	RecipientGroup string         `db:"recipient_group" json:"recipientGroup"`
	Status         CampaignStatus `db:"status" json:"status"`
	Attachments    AttachmentList `db:"attachments" json:"attachments"`
	RecipientCount int            `db:"recipient_count" json:"recipientCount"`
	SentCount      int            `db:"sent_count" json:"sentCount"`
	FailedCount    int            `db:"failed_count" json:"failedCount"`
	SentAt         *time.Time     `db:"sent_at" json:"sentAt,omitempty"`
	CreatedBy      *string        `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// CampaignFilter narrows down campaign listings.
type CampaignFilter struct {
	Search    string
	Status    CampaignStatus
	Group     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
