package httpserver

import (
	"ecommerce-core/internal/auth"
	"ecommerce-core/internal/catalog"
	"ecommerce-core/internal/domain"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PlatformService is the slice of the order orchestrator the handlers use.
// Admin policy lives in the core; handlers only pass the acting user along.
type PlatformService interface {
	CreateCategory(name, description string, actingUser domain.User) (domain.Category, error)
	DeleteCategory(id string, actingUser domain.User) error
	ListCategories() []domain.Category
	AddProduct(in catalog.AddProductInput, actingUser domain.User) (domain.Product, error)
	RemoveProduct(id string, actingUser domain.User) error
	ListProducts() []domain.Product
	AddToCart(userID, productID string, quantity int) error
	RemoveFromCart(userID, productID string, quantity int) error
	CartItems(userID string) []domain.CartItem
	CartTotal(userID string) string
	Checkout(userID, paymentMethod string) (domain.Order, error)
	ConfirmPayment(reference string, evidence map[string]string) (domain.Order, error)
	Receipt(reference string) (domain.PaymentReceipt, error)
	ListOrders(actingUser domain.User) ([]domain.Order, error)
	OrdersForUser(userID string) []domain.Order
	PaymentMethods() []string
}

// AuthService is the slice of the auth service the handlers use.
type AuthService interface {
	Login(username, password string) (string, error)
	Logout(token string)
	ResolveUser(token string) (domain.User, error)
	RequestPasswordReset(username string) (string, error)
	ResetPassword(token, newPassword string) error
	Register(in auth.RegisterInput, actingUser *domain.User) (domain.User, error)
	Users() []domain.User
	DeleteUser(username string, actingUser domain.User) error
	Unlock(username string, actingUser domain.User) error
}

type Deps struct {
	Platform PlatformService
	Auth     AuthService
}

// buildRouter wires all routes for the API.
func buildRouter(logger *zap.SugaredLogger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginLogger(logger), gin.Recovery(), cors.Default())

	router.GET("/healthz", healthHandler)

	router.POST("/auth/register", registerHandler(deps.Auth))
	router.POST("/auth/login", loginHandler(deps.Auth))
	router.POST("/auth/logout", logoutHandler(deps.Auth))
	router.POST("/auth/password-reset/request", passwordResetRequestHandler(deps.Auth))
	router.POST("/auth/password-reset/confirm", passwordResetConfirmHandler(deps.Auth))

	router.GET("/catalog/categories", listCategoriesHandler(deps.Platform))
	router.GET("/catalog/products", listProductsHandler(deps.Platform))
	router.GET("/payments/methods", paymentMethodsHandler(deps.Platform))

	authed := router.Group("", authRequired(deps.Auth))
	authed.GET("/me", currentUserHandler())
	authed.POST("/catalog/categories", createCategoryHandler(deps.Platform))
	authed.DELETE("/catalog/categories/:id", deleteCategoryHandler(deps.Platform))
	authed.POST("/catalog/products", addProductHandler(deps.Platform))
	authed.DELETE("/catalog/products/:id", removeProductHandler(deps.Platform))
	authed.GET("/cart", getCartHandler(deps.Platform))
	authed.POST("/cart/items", addToCartHandler(deps.Platform))
	authed.DELETE("/cart/items", removeFromCartHandler(deps.Platform))
	authed.POST("/checkout", checkoutHandler(deps.Platform))
	authed.GET("/payments/:reference", getReceiptHandler(deps.Platform))
	authed.POST("/payments/:reference/confirm", confirmPaymentHandler(deps.Platform))
	authed.GET("/orders", listOrdersHandler(deps.Platform))
	authed.GET("/orders/me", myOrdersHandler(deps.Platform))
	authed.GET("/users", listUsersHandler(deps.Auth))
	authed.POST("/users", createUserHandler(deps.Auth))
	authed.DELETE("/users/:username", deleteUserHandler(deps.Auth))
	authed.POST("/users/:username/unlock", unlockUserHandler(deps.Auth))

	return router
}

func ginLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
