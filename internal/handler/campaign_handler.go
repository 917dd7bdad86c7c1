package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greenfield-academy/admin-api/internal/models"
	"github.com/greenfield-academy/admin-api/internal/service"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/response"
)

// CampaignHandler exposes campaign CRUD and dispatch endpoints.
type CampaignHandler struct {
	campaigns *service.CampaignService
}

// NewCampaignHandler constructs CampaignHandler.
func NewCampaignHandler(campaigns *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// List godoc
// @Summary List email campaigns
// @Tags Campaigns
// @Produce json
// @Param search query string false "Search in subject or content"
// @Param status query string false "Filter by status"
// @Param group query string false "Filter by recipient group"
// @Success 200 {object} response.Envelope
// @Router /emails [get]
func (h *CampaignHandler) List(c *gin.Context) {
	var filter models.CampaignFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Status = models.CampaignStatus(c.Query("status"))
	filter.Group = c.Query("group")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	campaigns, _, err := h.campaigns.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "emails", campaigns)
}

// Create godoc
// @Summary Create draft campaign
// @Tags Campaigns
// @Accept multipart/form-data
// @Produce json
// @Param subject formData string true "Subject"
// @Param content formData string true "HTML content"
// @Param recipientGroup formData string true "Recipient group key"
// @Param attachments formData file false "Attachments"
// @Success 201 {object} response.Envelope
// @Router /emails [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	req, err := bindCampaignSave(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	uploads, closers, err := formFiles(c, "attachments")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachments"))
		return
	}
	defer closeAll(closers)

	var createdBy *string
	if session := sessionFromContext(c); session != nil {
		createdBy = &session.UserID
	}
	campaign, err := h.campaigns.Create(c.Request.Context(), req, uploads, createdBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "emails", campaign)
}

// Update godoc
// @Summary Update draft campaign
// @Tags Campaigns
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /emails/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	req, err := bindCampaignSave(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	uploads, closers, err := formFiles(c, "attachments")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachments"))
		return
	}
	defer closeAll(closers)

	campaign, err := h.campaigns.Update(c.Request.Context(), c.Param("id"), req, uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"emails": campaign})
}

// Publish godoc
// @Summary Publish a draft campaign to its recipient group
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /emails/{id} [patch]
func (h *CampaignHandler) Publish(c *gin.Context) {
	campaign, err := h.campaigns.Publish(c.Request.Context(), c.Param("id"), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"emails": campaign})
}

// Delete godoc
// @Summary Delete campaign
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /emails/{id} [delete]
func (h *CampaignHandler) Delete(c *gin.Context) {
	if err := h.campaigns.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

// Send godoc
// @Summary Send an ad-hoc campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body service.SendCampaignRequest true "Campaign payload"
// @Success 201 {object} response.Envelope
// @Router /campaign [post]
func (h *CampaignHandler) Send(c *gin.Context) {
	var req service.SendCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid campaign payload"))
		return
	}
	campaign, err := h.campaigns.Send(c.Request.Context(), req, sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "campaign", campaign)
}

// Groups godoc
// @Summary List recipient groups with live counts
// @Tags Campaigns
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *CampaignHandler) Groups(c *gin.Context) {
	groups, err := h.campaigns.Groups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "groups", groups)
}

// Report godoc
// @Summary Download a campaign delivery report
// @Tags Campaigns
// @Produce application/pdf
// @Param id path string true "Campaign ID"
// @Success 200 {file} binary
// @Router /emails/{id}/report [get]
func (h *CampaignHandler) Report(c *gin.Context) {
	report, err := h.campaigns.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=campaign-%s.pdf", c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", report)
}

// AttachmentURL godoc
// @Summary Issue a signed download token for an attachment
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Param attachmentId path string true "Attachment ID"
// @Success 200 {object} response.Envelope
// @Router /emails/{id}/attachments/{attachmentId}/url [get]
func (h *CampaignHandler) AttachmentURL(c *gin.Context) {
	token, expiresAt, err := h.campaigns.AttachmentToken(c.Request.Context(), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"token": token, "expiresAt": expiresAt})
}

// DownloadAttachment godoc
// @Summary Download an attachment with a signed token
// @Tags Campaigns
// @Produce application/octet-stream
// @Param id path string true "Campaign ID"
// @Param attachmentId path string true "Attachment ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /emails/{id}/attachments/{attachmentId} [get]
func (h *CampaignHandler) DownloadAttachment(c *gin.Context) {
	att, file, err := h.campaigns.OpenAttachment(c.Request.Context(), c.Param("id"), c.Param("attachmentId"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
	c.Header("Content-Type", att.MimeType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}

func bindCampaignSave(c *gin.Context) (service.SaveCampaignRequest, error) {
	req := service.SaveCampaignRequest{
		Subject:        c.PostForm("subject"),
		Content:        c.PostForm("content"),
		RecipientGroup: c.PostForm("recipientGroup"),
	}
	// existingAttachments arrives as a JSON array of attachment IDs to keep.
	if raw := c.PostForm("existingAttachments"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.KeepAttachments); err != nil {
			return service.SaveCampaignRequest{}, appErrors.Clone(appErrors.ErrValidation, "invalid existing attachment list")
		}
	}
	return req, nil
}
