package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greenfield-academy/admin-api/internal/middleware"
	"github.com/greenfield-academy/admin-api/internal/models"
	"github.com/greenfield-academy/admin-api/internal/service"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/response"
)

// AdminHandler exposes authentication and admin account endpoints.
type AdminHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(auth *service.AuthService, users *service.UserService) *AdminHandler {
	return &AdminHandler{auth: auth, users: users}
}

// Login godoc
// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, result)
}

// Logout godoc
// @Summary Admin logout
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/logout [post]
func (h *AdminHandler) Logout(c *gin.Context) {
	deviceToken := c.GetHeader(middleware.HeaderDeviceToken)
	if deviceToken == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing device token"))
		return
	}
	if err := h.auth.Logout(c.Request.Context(), deviceToken, c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

// List godoc
// @Summary List admin accounts
// @Tags Admins
// @Produce json
// @Param search query string false "Search by name or email"
// @Param role query string false "Filter by role"
// @Success 200 {object} response.Envelope
// @Router /admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	var filter models.AdminFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if role := c.Query("role"); role != "" {
		r := models.AdminRole(role)
		filter.Role = &r
	}
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

	admins, _, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "admins", admins)
}

// Create godoc
// @Summary Create admin account
// @Tags Admins
// @Accept json
// @Produce json
// @Param payload body service.CreateAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Router /admins [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req service.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid admin payload"))
		return
	}
	admin, err := h.users.Create(c.Request.Context(), req, sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "admins", admin)
}

// Update godoc
// @Summary Update admin account
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path string true "Admin ID"
// @Param payload body service.UpdateAdminRequest true "Admin payload"
// @Success 200 {object} response.Envelope
// @Router /admins/{id} [put]
func (h *AdminHandler) Update(c *gin.Context) {
	var req service.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid admin payload"))
		return
	}
	admin, err := h.users.Update(c.Request.Context(), c.Param("id"), req, sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"admins": admin})
}

// Delete godoc
// @Summary Delete admin account
// @Tags Admins
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Router /admins/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id"), sessionFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}
