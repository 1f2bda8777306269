package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/starburger/order-service/internal/database"
)

// ============================================================================
// Public order API
// ============================================================================

// OrderStore is the persistence the public API needs.
// *database.OrderStore satisfies it.
type OrderStore interface {
	Create(ctx context.Context, order database.NewOrder) (*database.Order, error)
	List(ctx context.Context) ([]*database.Order, error)
}

// ProductSource lists products available for ordering.
type ProductSource interface {
	AvailableProducts(ctx context.Context) ([]database.Product, error)
}

var (
	orderStore    OrderStore
	productSource ProductSource
)

// InitOrderAPI wires the public API handlers to their stores.
// Called once during application startup.
func InitOrderAPI(orders OrderStore, products ProductSource) {
	orderStore = orders
	productSource = products
}

// OrderItemRequest is one line of an order submission.
type OrderItemRequest struct {
	Product  int64 `json:"product" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,min=1"`
}

// OrderRequest is the public order submission payload.
// Products must be present; an empty list is rejected before anything is
// persisted.
type OrderRequest struct {
	Firstname   string             `json:"firstname" binding:"required"`
	Lastname    string             `json:"lastname" binding:"required"`
	Phonenumber string             `json:"phonenumber" binding:"required"`
	Address     string             `json:"address" binding:"required"`
	Products    []OrderItemRequest `json:"products" binding:"required"`
}

// RegisterOrder handles public order submission
// POST /api/order
func RegisterOrder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "products must be a non-empty list"})
		return
	}

	newOrder := database.NewOrder{
		Firstname:   req.Firstname,
		Lastname:    req.Lastname,
		Phonenumber: req.Phonenumber,
		Address:     req.Address,
	}
	for _, item := range req.Products {
		newOrder.Items = append(newOrder.Items, database.NewOrderItem{
			ProductID: item.Product,
			Quantity:  item.Quantity,
		})
	}

	order, err := orderStore.Create(c.Request.Context(), newOrder)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register order"})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListProducts handles the public product listing
// GET /api/products
func ListProducts(c *gin.Context) {
	products, err := productSource.AvailableProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	if products == nil {
		products = []database.Product{}
	}
	c.JSON(http.StatusOK, products)
}
