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

// StaffHandler exposes staff directory endpoints.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs StaffHandler.
func NewStaffHandler(staff *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// List godoc
// @Summary List staff members
// @Tags Staff
// @Produce json
// @Param search query string false "Search by name or email"
// @Param role query string false "Filter by role"
// @Param department query string false "Filter by department"
// @Param active query bool false "Filter by active state"
// @Success 200 {object} response.Envelope
// @Router /staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	var filter models.StaffFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Role = c.Query("role")
	filter.Department = c.Query("department")
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	members, _, err := h.staff.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "staff", members)
}

// Create godoc
// @Summary Create staff member
// @Tags Staff
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "Full name"
// @Param role formData string true "Role"
// @Param department formData string true "Department"
// @Param email formData string false "Email"
// @Param image formData file false "Profile image"
// @Success 201 {object} response.Envelope
// @Router /staff [post]
func (h *StaffHandler) Create(c *gin.Context) {
	req := service.CreateStaffRequest{
		FullName:   c.PostForm("fullName"),
		Email:      formOptional(c, "email"),
		Phone:      formOptional(c, "phone"),
		Role:       c.PostForm("role"),
		Department: c.PostForm("department"),
		Position:   formOptional(c, "position"),
		Bio:        formOptional(c, "bio"),
	}
	image, closer, err := optionalFile(c, "image")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open image"))
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	member, err := h.staff.Create(c.Request.Context(), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "staff", member)
}

// Update godoc
// @Summary Update staff member
// @Tags Staff
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id} [put]
func (h *StaffHandler) Update(c *gin.Context) {
	req := service.UpdateStaffRequest{
		FullName:   c.PostForm("fullName"),
		Email:      formOptional(c, "email"),
		Phone:      formOptional(c, "phone"),
		Role:       c.PostForm("role"),
		Department: c.PostForm("department"),
		Position:   formOptional(c, "position"),
		Bio:        formOptional(c, "bio"),
		Active:     c.DefaultPostForm("active", "true") != "false",
	}
	image, closer, err := optionalFile(c, "image")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open image"))
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	member, err := h.staff.Update(c.Request.Context(), c.Param("id"), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"staff": member})
}

// Delete godoc
// @Summary Delete staff member
// @Tags Staff
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id} [delete]
func (h *StaffHandler) Delete(c *gin.Context) {
	if err := h.staff.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}
