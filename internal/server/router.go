package server

import (
	"log/slog"
	"net/http"

	"accounts-be/internal/controllers"
	"accounts-be/internal/entities"
	"accounts-be/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Deps holds everything the router needs.
type Deps struct {
	Users    *controllers.UserController
	Admin    *controllers.AdminController
	Verifier middleware.TokenVerifier
	Logger   *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	admin := string(entities.RoleAdmin)
	user := string(entities.RoleUser)
	auth := middleware.AuthMiddleware(d.Verifier)

	api := router.Group("/api/v1")
	{
		users := api.Group("/user")
		{
			users.POST("/create", d.Users.Create)
			users.POST("/login", d.Users.Login)
			users.POST("/refresh-token", d.Users.RefreshToken)
			users.POST("/forgot-password", d.Users.ForgotPassword)
			users.POST("/verify-otp", d.Users.VerifyOTP)
			users.POST("/reset-password", d.Users.ResetPassword)

			users.PATCH("/update", auth, middleware.RequireRole(user, admin), d.Users.UpdateProfile)
			users.POST("/logout", auth, middleware.RequireRole(user), d.Users.Logout)
			users.GET("/getUserProfile", auth, d.Users.GetProfile)
		}

		admins := api.Group("/admin")
		admins.Use(auth, middleware.RequireRole(admin))
		{
			admins.GET("/users", d.Admin.ListUsers)
			admins.DELETE("/delete/:id", d.Admin.DeleteUser)
			admins.PATCH("/reset-password/:id", d.Admin.ResetUserPassword)
		}
	}

	return router
}
