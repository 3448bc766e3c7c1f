package httpserver

import (
	"net/http"

	"ecommerce-core/internal/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func listCategoriesHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, p.ListCategories())
	}
}

type createCategoryBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func createCategoryHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCategoryBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		category, err := p.CreateCategory(req.Name, req.Description, currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

func deleteCategoryHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.DeleteCategory(c.Param("id"), currentUser(c)); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listProductsHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, p.ListProducts())
	}
}

type addProductBody struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       string            `json:"price"`
	Stock       int               `json:"stock"`
	CategoryID  string            `json:"categoryId"`
	Metadata    map[string]string `json:"metadata"`
}

func addProductHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addProductBody
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			badRequest(c, "invalid price")
			return
		}
		product, err := p.AddProduct(catalog.AddProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       price,
			Stock:       req.Stock,
			CategoryID:  req.CategoryID,
			Metadata:    req.Metadata,
		}, currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func removeProductHandler(p PlatformService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.RemoveProduct(c.Param("id"), currentUser(c)); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
