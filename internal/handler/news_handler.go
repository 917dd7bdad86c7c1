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

// NewsHandler exposes news article endpoints.
type NewsHandler struct {
	news *service.NewsService
}

// NewNewsHandler constructs NewsHandler.
func NewNewsHandler(news *service.NewsService) *NewsHandler {
	return &NewsHandler{news: news}
}

// List godoc
// @Summary List news articles
// @Tags News
// @Produce json
// @Param search query string false "Search in title or excerpt"
// @Param category query string false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /news [get]
func (h *NewsHandler) List(c *gin.Context) {
	var filter models.NewsFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Category = c.Query("category")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	articles, _, err := h.news.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "news", articles)
}

// Create godoc
// @Summary Create news article
// @Tags News
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param excerpt formData string true "Excerpt"
// @Param fullContent formData string true "Full content"
// @Param category formData string true "Category"
// @Param author formData string true "Author"
// @Param date formData string true "Publication date"
// @Param image formData file false "Banner image"
// @Success 201 {object} response.Envelope
// @Router /news [post]
func (h *NewsHandler) Create(c *gin.Context) {
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

	article, err := h.news.Create(c.Request.Context(), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "news", article)
}

// Update godoc
// @Summary Update news article
// @Tags News
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} response.Envelope
// @Router /news/{id} [put]
func (h *NewsHandler) Update(c *gin.Context) {
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

	article, err := h.news.Update(c.Request.Context(), c.Param("id"), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"news": article})
}

// Delete godoc
// @Summary Delete news article
// @Tags News
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} response.Envelope
// @Router /news/{id} [delete]
func (h *NewsHandler) Delete(c *gin.Context) {
	if err := h.news.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *NewsHandler) bindSave(c *gin.Context) (service.SaveNewsRequest, error) {
	date, err := parseDate(c.PostForm("date"))
	if err != nil {
		return service.SaveNewsRequest{}, appErrors.Clone(appErrors.ErrValidation, "invalid publication date")
	}
	return service.SaveNewsRequest{
		Title:       c.PostForm("title"),
		Excerpt:     c.PostForm("excerpt"),
		FullContent: c.PostForm("fullContent"),
		Category:    c.PostForm("category"),
		Author:      c.PostForm("author"),
		Date:        date,
	}, nil
}
