package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type checkoutBody struct {
	PaymentMethod string `json:"paymentMethod"`
}

func checkoutHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		order, err := p.Checkout(currentUser(c).ID, req.PaymentMethod)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func getReceiptHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		receipt, err := p.Receipt(c.Param("reference"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

type confirmPaymentBody struct {
	Evidence map[string]string `json:"evidence"`
}

func confirmPaymentHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmPaymentBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		order, err := p.ConfirmPayment(c.Param("reference"), req.Evidence)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func listOrdersHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := p.ListOrders(currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func myOrdersHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, p.OrdersForUser(currentUser(c).ID))
	}
}

func paymentMethodsHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"methods": p.PaymentMethods()})
	}
}
