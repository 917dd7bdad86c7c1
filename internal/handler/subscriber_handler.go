package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greenfield-academy/admin-api/internal/models"
	"github.com/greenfield-academy/admin-api/internal/service"
	"github.com/greenfield-academy/admin-api/pkg/response"
)

// SubscriberHandler exposes newsletter subscription endpoints.
type SubscriberHandler struct {
	subscribers *service.SubscriberService
}

// NewSubscriberHandler constructs SubscriberHandler.
func NewSubscriberHandler(subscribers *service.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{subscribers: subscribers}
}

// List godoc
// @Summary List subscribers
// @Tags Subscribers
// @Produce json
// @Param search query string false "Search by email or name"
// @Param subscribed query bool false "Filter by subscription state"
// @Success 200 {object} response.Envelope
// @Router /subscriber [get]
func (h *SubscriberHandler) List(c *gin.Context) {
	var filter models.SubscriberFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if subscribed := c.Query("subscribed"); subscribed != "" {
		v := subscribed == "true"
		filter.Subscribed = &v
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = size
	}

	subscribers, _, err := h.subscribers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "subscribers", subscribers)
}

// Delete godoc
// @Summary Delete subscriber
// @Tags Subscribers
// @Produce json
// @Param id path string true "Subscriber ID"
// @Success 200 {object} response.Envelope
// @Router /subscriber/{id} [delete]
func (h *SubscriberHandler) Delete(c *gin.Context) {
	if err := h.subscribers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

// Export godoc
// @Summary Export subscribers as CSV
// @Tags Subscribers
// @Produce text/csv
// @Success 200 {file} binary
// @Router /subscriber/export [get]
func (h *SubscriberHandler) Export(c *gin.Context) {
	data, err := h.subscribers.ExportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("subscribers-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
