package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func getCartHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		c.JSON(http.StatusOK, gin.H{
			"items": p.CartItems(user.ID),
			"total": p.CartTotal(user.ID),
		})
	}
}

type cartItemBody struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func addToCartHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartItemBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		if err := p.AddToCart(currentUser(c).ID, req.ProductID, req.Quantity); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func removeFromCartHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartItemBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		if err := p.RemoveFromCart(currentUser(c).ID, req.ProductID, req.Quantity); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
