package controllers

import (
	"net/http"

	"accounts-be/internal/middleware"
	"accounts-be/internal/models"
	"accounts-be/internal/response"
	"accounts-be/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	refreshTokenCookie = "refreshToken"
	roleCookie         = "role"
)

type UserController struct {
	accountService  service.AccountService
	recoveryService service.RecoveryService
	secureCookies   bool
}

// NewUserController wires the account and recovery endpoints. secureCookies
// sets the Secure attribute on every cookie it writes.
func NewUserController(accountService service.AccountService, recoveryService service.RecoveryService, secureCookies bool) *UserController {
	return &UserController{
		accountService:  accountService,
		recoveryService: recoveryService,
		secureCookies:   secureCookies,
	}
}

// Create handles POST /api/v1/user/create
func (uc *UserController) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c, err)
		return
	}

	user, err := uc.accountService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, user, "User created successfully")
}

// Login handles POST /api/v1/user/login
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c, err)
		return
	}

	resp, err := uc.accountService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	uc.setSessionCookies(c, resp)
	response.JSON(c, http.StatusOK, resp, "User logged in successfully.")
}

// RefreshToken handles POST /api/v1/user/refresh-token. The refresh token is
// read from its cookie, falling back to the request body.
func (uc *UserController) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(refreshTokenCookie)
	if token == "" {
		var req models.RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}

	resp, err := uc.accountService.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	uc.setSessionCookies(c, resp)
	response.JSON(c, http.StatusOK, resp, "Access token refreshed")
}

// Logout handles POST /api/v1/user/logout
func (uc *UserController) Logout(c *gin.Context) {
	if err := uc.accountService.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	uc.clearSessionCookies(c)
	response.JSON(c, http.StatusOK, nil, "User logged out successfully.")
}

// UpdateProfile handles PATCH /api/v1/user/update
func (uc *UserController) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c, err)
		return
	}

	user, err := uc.accountService.UpdateProfile(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, "User profile updated successfully")
}

// GetProfile handles GET /api/v1/user/getUserProfile
func (uc *UserController) GetProfile(c *gin.Context) {
	user, err := uc.accountService.GetSelf(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, "User found successfully.")
}

// ForgotPassword handles POST /api/v1/user/forgot-password
func (uc *UserController) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c, err)
		return
	}

	if err := uc.recoveryService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, nil, "OTP sent to your email")
}

// VerifyOTP handles POST /api/v1/user/verify-otp
func (uc *UserController) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c, err)
		return
	}

	if err := uc.recoveryService.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, nil, "OTP verified successfully")
}

// ResetPassword handles POST /api/v1/user/reset-password
func (uc *UserController) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c, err)
		return
	}

	if err := uc.recoveryService.ResetPassword(c.Request.Context(), req.Email, req.Password); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, nil, "Password reset successfully")
}

// Cookies are session cookies: no Max-Age, so the browser drops them on exit
// while the tokens themselves carry the real expiry.
func (uc *UserController) setSessionCookies(c *gin.Context, resp *models.LoginResponse) {
	c.SetCookie(middleware.AccessTokenCookie, resp.AccessToken, 0, "/", "", uc.secureCookies, true)
	c.SetCookie(refreshTokenCookie, resp.RefreshToken, 0, "/", "", uc.secureCookies, true)
	c.SetCookie(roleCookie, resp.Role, 0, "/", "", uc.secureCookies, false)
}

func (uc *UserController) clearSessionCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", uc.secureCookies, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", uc.secureCookies, true)
}
