package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greenfield-academy/admin-api/internal/models"
	"github.com/greenfield-academy/admin-api/internal/service"
	"github.com/greenfield-academy/admin-api/pkg/response"
)

// ContactHandler exposes the guardian contact directory.
type ContactHandler struct {
	contacts *service.ContactService
}

// NewContactHandler constructs ContactHandler.
func NewContactHandler(contacts *service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// List godoc
// @Summary List guardian contacts
// @Tags Contacts
// @Produce json
// @Param search query string false "Search by name or email"
// @Param form query string false "Filter by form"
// @Success 200 {object} response.Envelope
// @Router /s [get]
func (h *ContactHandler) List(c *gin.Context) {
	var filter models.ContactFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Form = c.Query("form")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = size
	}

	contacts, _, err := h.contacts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "students", contacts)
}
