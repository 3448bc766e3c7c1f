package httpserver

import (
	"net/http"

	"ecommerce-core/internal/auth"
	"ecommerce-core/internal/domain"
	"github.com/gin-gonic/gin"
)

type registerBody struct {
	Username        string `json:"username"`
	FullName        string `json:"fullName"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	ShippingAddress string `json:"shippingAddress"`
}

// registerHandler is the public self-registration endpoint. It always creates
// customer accounts; privileged roles go through the admin user endpoints.
func registerHandler(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		if req.Role != "" && req.Role != string(domain.RoleCustomer) {
			badRequest(c, "self-registration creates customer accounts only")
			return
		}
		user, err := authSvc.Register(auth.RegisterInput{
			Username:        req.Username,
			FullName:        req.FullName,
			Password:        req.Password,
			Role:            domain.RoleCustomer,
			ShippingAddress: req.ShippingAddress,
		}, nil)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func createUserHandler(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		actingUser := currentUser(c)
		if err := auth.RequireAdmin(actingUser); err != nil {
			respondError(c, err)
			return
		}
		user, err := authSvc.Register(auth.RegisterInput{
			Username:        req.Username,
			FullName:        req.FullName,
			Password:        req.Password,
			Role:            domain.Role(req.Role),
			ShippingAddress: req.ShippingAddress,
		}, &actingUser)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func listUsersHandler(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireAdmin(currentUser(c)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, authSvc.Users())
	}
}

func deleteUserHandler(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authSvc.DeleteUser(c.Param("username"), currentUser(c)); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func unlockUserHandler(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authSvc.Unlock(c.Param("username"), currentUser(c)); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
