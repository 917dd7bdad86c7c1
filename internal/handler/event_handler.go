package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greenfield-academy/admin-api/internal/models"
	"github.com/greenfield-academy/admin-api/internal/service"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/response"
)

// EventHandler exposes calendar event endpoints.
type EventHandler struct {
	events *service.EventService
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param search query string false "Search in title or location"
// @Param category query string false "Filter by category"
// @Param featured query bool false "Filter featured events"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var filter models.EventFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Category = c.Query("category")
	if featured := c.Query("featured"); featured != "" {
		v := featured == "true"
		filter.Featured = &v
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	events, _, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "events", events)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param category formData string true "Category"
// @Param date formData string true "Date"
// @Param time formData string true "Time"
// @Param location formData string true "Location"
// @Param image formData file false "Poster image"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	req, err := h.bindSave(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	image, closer, err := optionalFile(c, "image")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open image"))
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	event, err := h.events.Create(c.Request.Context(), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "events", event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	req, err := h.bindSave(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	image, closer, err := optionalFile(c, "image")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open image"))
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	event, err := h.events.Update(c.Request.Context(), c.Param("id"), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"events": event})
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *EventHandler) bindSave(c *gin.Context) (service.SaveEventRequest, error) {
	date, err := parseDate(c.PostForm("date"))
	if err != nil {
		return service.SaveEventRequest{}, appErrors.Clone(appErrors.ErrValidation, "invalid event date")
	}
	attendees := 0
	if raw := c.PostForm("attendees"); raw != "" {
		attendees, err = strconv.Atoi(raw)
		if err != nil || attendees < 0 {
			return service.SaveEventRequest{}, appErrors.Clone(appErrors.ErrValidation, "invalid attendee count")
		}
	}
	return service.SaveEventRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Date:        date,
		Time:        c.PostForm("time"),
		Location:    c.PostForm("location"),
		Speaker:     formOptional(c, "speaker"),
		Attendees:   attendees,
		Featured:    c.PostForm("featured") == "true",
	}, nil
}
