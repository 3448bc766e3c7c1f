package httpserver

import (
	"net/http"
	"strings"

	"ecommerce-core/internal/domain"
	"github.com/gin-gonic/gin"
)

const userContextKey = "currentUser"

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(header)
}

// authRequired resolves the bearer token into a user and stores it on the
// request context.
func authRequired(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		user, err := authSvc.ResolveUser(token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	u, _ := c.Get(userContextKey)
	user, _ := u.(domain.User)
	return user
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func loginHandler(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		token, err := authSvc.Login(req.Username, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

func logoutHandler(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			authSvc.Logout(token)
		}
		c.Status(http.StatusNoContent)
	}
}

type passwordResetRequestBody struct {
	Username string `json:"username"`
}

func passwordResetRequestHandler(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req passwordResetRequestBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		token, err := authSvc.RequestPasswordReset(req.Username)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"resetToken": token})
	}
}

type passwordResetConfirmBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func passwordResetConfirmHandler(authSvc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req passwordResetConfirmBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		if err := authSvc.ResetPassword(req.Token, req.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func currentUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, currentUser(c))
	}
}
