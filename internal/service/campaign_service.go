package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenfield-academy/admin-api/internal/mailing"
	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/export"
	"github.com/greenfield-academy/admin-api/pkg/jobs"
	"github.com/greenfield-academy/admin-api/pkg/mailer"
	"github.com/greenfield-academy/admin-api/pkg/messaging"
	"github.com/greenfield-academy/admin-api/pkg/storage"
)

type campaignRepository interface {
	List(ctx context.Context, filter models.CampaignFilter) ([]models.EmailCampaign, int, error)
	FindByID(ctx context.Context, id string) (*models.EmailCampaign, error)
	Create(ctx context.Context, campaign *models.EmailCampaign) error
	Update(ctx context.Context, campaign *models.EmailCampaign) error
	TransitionStatus(ctx context.Context, id string, from, to models.CampaignStatus) (bool, error)
	RecordDelivery(ctx context.Context, id string, recipients, sent, failed int, sentAt time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
}

type activeStaffLister interface {
	ListActive(ctx context.Context) ([]models.StaffMember, error)
}

type allContactsLister interface {
	ListAll(ctx context.Context) ([]models.Contact, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type campaignMetrics interface {
	RecordCampaignDispatch(group string, recipients, sent, failed int)
	ObserveDBQuery(label string, duration time.Duration)
}

// SaveCampaignRequest holds payload for creating and editing draft campaigns.
type SaveCampaignRequest struct {
	Subject        string `json:"subject" validate:"required"`
	Content        string `json:"content" validate:"required"`
	RecipientGroup string `json:"recipientGroup" validate:"required"`
	// KeepAttachments lists IDs of already stored attachments to retain on
	// update; stored files absent from the list are removed.
	KeepAttachments []string `json:"existingAttachments"`
}

// SendCampaignRequest holds payload for a direct send. When CampaignID names
// a saved draft, the draft is dispatched instead of creating a new record.
type SendCampaignRequest struct {
	CampaignID *string `json:"campaignId"`
	Group      string  `json:"group" validate:"required"`
	Subject    string  `json:"subject" validate:"required"`
	Content    string  `json:"content" validate:"required"`
}

// CampaignOptions tunes dispatch behaviour.
type CampaignOptions struct {
	BatchSize         int
	WorkerConcurrency int
	WorkerRetries     int
}

type dispatchJob struct {
	CampaignID string
	Group      string
	Emails     []string
}

// CampaignService owns the campaign lifecycle from draft to delivery. Sends
// run on a background queue so the HTTP request returns as soon as the
// campaign is accepted.
type CampaignService struct {
	repo      campaignRepository
	staff     activeStaffLister
	contacts  allContactsLister
	audits    auditWriter
	cache     *CacheService
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	policy    UploadPolicy
	mail      mailer.Mailer
	publisher messaging.Publisher
	pdf       *export.PDFExporter
	metrics   campaignMetrics
	queue     *jobs.Queue
	batchSize int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCampaignService constructs the campaign service and its dispatch queue.
// Call StartWorkers before accepting sends and StopWorkers on shutdown.
func NewCampaignService(
	repo campaignRepository,
	staff activeStaffLister,
	contacts allContactsLister,
	audits auditWriter,
	cache *CacheService,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	policy UploadPolicy,
	mail mailer.Mailer,
	publisher messaging.Publisher,
	metrics campaignMetrics,
	opts CampaignOptions,
	validate *validator.Validate,
	logger *zap.Logger,
) *CampaignService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	s := &CampaignService{
		repo:      repo,
		staff:     staff,
		contacts:  contacts,
		audits:    audits,
		cache:     cache,
		store:     store,
		signer:    signer,
		policy:    policy,
		mail:      mail,
		publisher: publisher,
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		batchSize: opts.BatchSize,
		validator: validate,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("campaign-dispatch", s.handleDispatch, jobs.QueueConfig{
		Workers:    opts.WorkerConcurrency,
		MaxRetries: opts.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// StartWorkers starts the dispatch queue.
func (s *CampaignService) StartWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopWorkers drains and stops the dispatch queue.
func (s *CampaignService) StopWorkers() {
	s.queue.Stop()
}

// List returns campaigns and pagination metadata.
func (s *CampaignService) List(ctx context.Context, filter models.CampaignFilter) ([]models.EmailCampaign, *models.Pagination, error) {
	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	return campaigns, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one campaign.
func (s *CampaignService) Get(ctx context.Context, id string) (*models.EmailCampaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	return campaign, nil
}

// Create stores a draft campaign with any uploaded attachments.
func (s *CampaignService) Create(ctx context.Context, req SaveCampaignRequest, uploads []*FileUpload, createdBy *string) (*models.EmailCampaign, error) {
	if err := s.validateSave(req); err != nil {
		return nil, err
	}
	attachments, staged, err := s.stageAttachments(uploads)
	if err != nil {
		return nil, err
	}
	campaign := &models.EmailCampaign{
		Subject:        req.Subject,
		Content:        req.Content,
		RecipientGroup: req.RecipientGroup,
		Status:         models.CampaignStatusDraft,
		Attachments:    attachments,
		CreatedBy:      createdBy,
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}
	promoteUploads(s.store, s.logger, staged...)
	s.invalidate(ctx)
	return campaign, nil
}

// Update edits a draft. Sent campaigns are immutable. Dropped attachment
// files are removed only after the row is persisted, so a failed update
// never strands a stored campaign with missing files.
func (s *CampaignService) Update(ctx context.Context, id string, req SaveCampaignRequest, uploads []*FileUpload) (*models.EmailCampaign, error) {
	if err := s.validateSave(req); err != nil {
		return nil, err
	}
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPublished, "only draft campaigns can be edited")
	}

	keep := make(map[string]struct{}, len(req.KeepAttachments))
	for _, attID := range req.KeepAttachments {
		keep[attID] = struct{}{}
	}
	var retained models.AttachmentList
	var dropped []string
	for _, att := range campaign.Attachments {
		if _, ok := keep[att.ID]; ok {
			retained = append(retained, att)
			continue
		}
		dropped = append(dropped, att.Path)
	}
	added, staged, err := s.stageAttachments(uploads)
	if err != nil {
		return nil, err
	}

	campaign.Subject = req.Subject
	campaign.Content = req.Content
	campaign.RecipientGroup = req.RecipientGroup
	campaign.Attachments = append(retained, added...)
	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update campaign")
	}
	promoteUploads(s.store, s.logger, staged...)
	for _, path := range dropped {
		if err := s.store.Delete(path); err != nil {
			s.logger.Warn("failed to remove dropped attachment", zap.String("path", path), zap.Error(err))
		}
	}
	s.invalidate(ctx)
	return campaign, nil
}

// Delete removes a campaign and its stored attachments.
func (s *CampaignService) Delete(ctx context.Context, id string) error {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete campaign")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
	}
	for _, att := range campaign.Attachments {
		if err := s.store.Delete(att.Path); err != nil {
			s.logger.Warn("failed to remove attachment of deleted campaign", zap.String("path", att.Path), zap.Error(err))
		}
	}
	s.invalidate(ctx)
	return nil
}

// Publish dispatches a saved draft to its recipient group. The draft to
// sending transition is atomic, so racing publishes of the same campaign
// collapse to a single dispatch.
func (s *CampaignService) Publish(ctx context.Context, id string, actor *models.Session) (*models.EmailCampaign, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	emails, err := s.resolveEmails(ctx, campaign.RecipientGroup)
	if err != nil {
		return nil, err
	}
	moved, err := s.repo.TransitionStatus(ctx, id, models.CampaignStatusDraft, models.CampaignStatusSending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start campaign send")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPublished, "campaign is already being sent or was sent")
	}
	if err := s.enqueue(campaign, emails); err != nil {
		return nil, err
	}
	s.writeAudit(ctx, actor, campaign.ID)
	s.invalidate(ctx)
	campaign.Status = models.CampaignStatusSending
	campaign.RecipientCount = len(emails)
	return campaign, nil
}

// Send creates and immediately dispatches a campaign from an ad-hoc payload,
// or dispatches the named saved draft.
func (s *CampaignService) Send(ctx context.Context, req SendCampaignRequest, actor *models.Session) (*models.EmailCampaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}
	if req.CampaignID != nil && *req.CampaignID != "" {
		return s.Publish(ctx, *req.CampaignID, actor)
	}
	emails, err := s.resolveEmails(ctx, req.Group)
	if err != nil {
		return nil, err
	}
	campaign := &models.EmailCampaign{
		Subject:        req.Subject,
		Content:        req.Content,
		RecipientGroup: req.Group,
		Status:         models.CampaignStatusSending,
		RecipientCount: len(emails),
	}
	if actor != nil {
		campaign.CreatedBy = &actor.UserID
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}
	if err := s.enqueue(campaign, emails); err != nil {
		return nil, err
	}
	s.writeAudit(ctx, actor, campaign.ID)
	s.invalidate(ctx)
	return campaign, nil
}

// Groups resolves all recipient groups with their live member counts.
func (s *CampaignService) Groups(ctx context.Context) ([]mailing.Group, error) {
	contacts, staff, err := s.loadAudience(ctx)
	if err != nil {
		return nil, err
	}
	return mailing.Groups(contacts, staff), nil
}

// AttachmentToken issues a signed, expiring download token for an attachment.
func (s *CampaignService) AttachmentToken(ctx context.Context, campaignID, attachmentID string) (string, time.Time, error) {
	att, err := s.findAttachment(ctx, campaignID, attachmentID)
	if err != nil {
		return "", time.Time{}, err
	}
	token, expiresAt, err := s.signer.Generate(att.ID, att.Path)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign attachment url")
	}
	return token, expiresAt, nil
}

// OpenAttachment validates a download token and opens the backing file.
func (s *CampaignService) OpenAttachment(ctx context.Context, campaignID, attachmentID, token string) (*models.Attachment, io.ReadCloser, error) {
	att, err := s.findAttachment(ctx, campaignID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	fileID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	if fileID != att.ID || relPath != att.Path {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download token does not match attachment")
	}
	file, err := s.store.Open(att.Path)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment file missing")
	}
	return att, file, nil
}

// Report renders a PDF delivery report for a campaign.
func (s *CampaignService) Report(ctx context.Context, id string) ([]byte, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sentAt := ""
	if campaign.SentAt != nil {
		sentAt = campaign.SentAt.Format(time.RFC3339)
	}
	data := export.Dataset{
		Headers: []string{"Field", "Value"},
		Rows: []map[string]string{
			{"Field": "Subject", "Value": campaign.Subject},
			{"Field": "Recipient Group", "Value": campaign.RecipientGroup},
			{"Field": "Status", "Value": string(campaign.Status)},
			{"Field": "Recipients", "Value": fmt.Sprintf("%d", campaign.RecipientCount)},
			{"Field": "Delivered", "Value": fmt.Sprintf("%d", campaign.SentCount)},
			{"Field": "Failed", "Value": fmt.Sprintf("%d", campaign.FailedCount)},
			{"Field": "Sent At", "Value": sentAt},
		},
	}
	report, err := s.pdf.Render(data, "Campaign Delivery Report")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render campaign report")
	}
	return report, nil
}

func (s *CampaignService) validateSave(req SaveCampaignRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}
	if !mailing.ValidGroup(mailing.GroupKey(req.RecipientGroup)) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown recipient group")
	}
	return nil
}

func (s *CampaignService) stageAttachments(uploads []*FileUpload) (models.AttachmentList, []stagedUpload, error) {
	var attachments models.AttachmentList
	var staged []stagedUpload
	for _, upload := range uploads {
		sf, err := stageUpload(s.store, s.policy, "attachments", upload)
		if err != nil {
			return nil, nil, err
		}
		staged = append(staged, sf)
		attachments = append(attachments, models.Attachment{
			ID:       uuid.NewString(),
			Filename: upload.Filename,
			Path:     sf.final,
			MimeType: upload.MimeType,
			Size:     upload.Size,
		})
	}
	return attachments, staged, nil
}

func (s *CampaignService) findAttachment(ctx context.Context, campaignID, attachmentID string) (*models.Attachment, error) {
	campaign, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	for i := range campaign.Attachments {
		if campaign.Attachments[i].ID == attachmentID {
			return &campaign.Attachments[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
}

func (s *CampaignService) loadAudience(ctx context.Context) ([]mailing.Contact, []mailing.StaffMember, error) {
	start := time.Now()
	contacts, err := s.contacts.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contacts")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("campaign_contacts", time.Since(start))
	}

	start = time.Now()
	staff, err := s.staff.ListActive(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("campaign_staff", time.Since(start))
	}
	return toMailingContacts(contacts), toMailingStaff(staff), nil
}

func (s *CampaignService) resolveEmails(ctx context.Context, group string) ([]string, error) {
	key := mailing.GroupKey(group)
	if !mailing.ValidGroup(key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown recipient group")
	}
	contacts, staff, err := s.loadAudience(ctx)
	if err != nil {
		return nil, err
	}
	emails := mailing.EmailsFor(key, contacts, staff)
	if len(emails) == 0 {
		return nil, appErrors.ErrNoRecipients
	}
	return emails, nil
}

func (s *CampaignService) enqueue(campaign *models.EmailCampaign, emails []string) error {
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: "campaign.dispatch",
		Payload: dispatchJob{
			CampaignID: campaign.ID,
			Group:      campaign.RecipientGroup,
			Emails:     emails,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue campaign dispatch")
	}
	return nil
}

// handleDispatch runs on the queue workers: it sends the campaign in BCC
// batches, records delivery stats and publishes the lifecycle event.
func (s *CampaignService) handleDispatch(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(dispatchJob)
	if !ok {
		return fmt.Errorf("unexpected dispatch payload %T", job.Payload)
	}
	campaign, err := s.repo.FindByID(ctx, payload.CampaignID)
	if err != nil {
		return fmt.Errorf("load campaign %s: %w", payload.CampaignID, err)
	}

	attachments, err := s.loadMailAttachments(campaign.Attachments)
	if err != nil {
		return err
	}

	sent := 0
	failed := 0
	for start := 0; start < len(payload.Emails); start += s.batchSize {
		end := start + s.batchSize
		if end > len(payload.Emails) {
			end = len(payload.Emails)
		}
		batch := payload.Emails[start:end]
		msg := mailer.Message{
			Subject:     campaign.Subject,
			HTMLContent: campaign.Content,
			Recipients:  batch,
			Attachments: attachments,
		}
		if err := s.mail.Send(ctx, msg); err != nil {
			failed += len(batch)
			s.logger.Error("campaign batch failed",
				zap.String("campaign_id", campaign.ID),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			continue
		}
		sent += len(batch)
	}

	sentAt := time.Now().UTC()
	if err := s.repo.RecordDelivery(ctx, campaign.ID, len(payload.Emails), sent, failed, sentAt); err != nil {
		s.logger.Error("failed to record campaign delivery", zap.String("campaign_id", campaign.ID), zap.Error(err))
	}
	final := models.CampaignStatusSent
	if sent == 0 {
		final = models.CampaignStatusFailed
	}
	if _, err := s.repo.TransitionStatus(ctx, campaign.ID, models.CampaignStatusSending, final); err != nil {
		s.logger.Error("failed to finalize campaign status", zap.String("campaign_id", campaign.ID), zap.Error(err))
	}
	s.invalidate(ctx)

	if s.metrics != nil {
		s.metrics.RecordCampaignDispatch(payload.Group, len(payload.Emails), sent, failed)
	}
	evt := messaging.CampaignEvent{
		CampaignID: campaign.ID,
		Group:      payload.Group,
		Status:     string(final),
		Recipients: len(payload.Emails),
		Sent:       sent,
		Failed:     failed,
		OccurredAt: sentAt,
	}
	if err := s.publisher.PublishCampaignEvent(ctx, evt); err != nil {
		s.logger.Warn("failed to publish campaign event", zap.String("campaign_id", campaign.ID), zap.Error(err))
	}

	s.logger.Info("campaign dispatched",
		zap.String("campaign_id", campaign.ID),
		zap.String("group", payload.Group),
		zap.Int("recipients", len(payload.Emails)),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
	return nil
}

func (s *CampaignService) loadMailAttachments(attachments models.AttachmentList) ([]mailer.Attachment, error) {
	var out []mailer.Attachment
	for _, att := range attachments {
		file, err := s.store.Open(att.Path)
		if err != nil {
			return nil, fmt.Errorf("open attachment %s: %w", att.ID, err)
		}
		raw, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", att.ID, err)
		}
		out = append(out, mailer.Attachment{
			Filename:    att.Filename,
			ContentType: att.MimeType,
			Content:     base64.StdEncoding.EncodeToString(raw),
		})
	}
	return out, nil
}

func (s *CampaignService) writeAudit(ctx context.Context, actor *models.Session, campaignID string) {
	if s.audits == nil {
		return
	}
	log := &models.AuditLog{
		Action:     models.AuditActionCampaignSend,
		Resource:   "email_campaigns",
		ResourceID: &campaignID,
	}
	if actor != nil {
		log.UserID = &actor.UserID
		log.IPAddress = actor.IPAddress
		log.UserAgent = actor.UserAgent
	}
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write campaign audit log", zap.Error(err))
	}
}

func (s *CampaignService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "list:emails:*"); err != nil {
		s.logger.Warn("failed to invalidate campaign cache", zap.Error(err))
	}
}
