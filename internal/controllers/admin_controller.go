package controllers

import (
	"net/http"

	"accounts-be/internal/models"
	"accounts-be/internal/response"
	"accounts-be/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	adminService service.AdminService
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{
		adminService: adminService,
	}
}

// ListUsers handles GET /api/v1/admin/users
func (ac *AdminController) ListUsers(c *gin.Context) {
	users, err := ac.adminService.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, "Users fetched successfully")
}

// DeleteUser handles DELETE /api/v1/admin/delete/:id
func (ac *AdminController) DeleteUser(c *gin.Context) {
	if err := ac.adminService.SoftDeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, nil, "User soft-deleted successfully.")
}

// ResetUserPassword handles PATCH /api/v1/admin/reset-password/:id
func (ac *AdminController) ResetUserPassword(c *gin.Context) {
	var req models.AdminResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c, err)
		return
	}

	if err := ac.adminService.ResetUserPassword(c.Request.Context(), c.Param("id"), req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, nil, "Password updated successfully")
}
