package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/starburger/order-service/internal/database"
	"github.com/starburger/order-service/internal/geocoder"
	"github.com/starburger/order-service/internal/ranking"
)

// ============================================================================
// Manager dashboard and admin endpoints
// ============================================================================

// Ranker ranks restaurants for orders. *ranking.Engine satisfies it.
type Ranker interface {
	RankAll(ctx context.Context, orders []*database.Order) (map[int64][]ranking.RankedRestaurant, error)
}

// AddressResolver supports the admin re-resolve endpoint.
type AddressResolver interface {
	ForceResolve(ctx context.Context, address string) (geocoder.Point, error)
}

var (
	ranker          Ranker
	addressResolver AddressResolver
	distanceCache   *ranking.DistanceCache
)

// InitDashboard wires the dashboard handlers to the ranking engine.
// Called once during application startup.
func InitDashboard(r Ranker, resolver AddressResolver, cache *ranking.DistanceCache) {
	ranker = r
	addressResolver = resolver
	distanceCache = cache
}

// DashboardOrder is one order on the manager dashboard: the order itself,
// its total in minor units, and the ranked restaurant list.
type DashboardOrder struct {
	Order       *database.Order            `json:"order"`
	Total       int64                      `json:"total"`
	Restaurants []ranking.RankedRestaurant `json:"restaurants"`
}

// ListOrders renders the manager dashboard data: every order annotated with
// the eligible restaurants sorted by distance, unknown distances last.
// GET /internal/orders
func ListOrders(c *gin.Context) {
	orders, err := orderStore.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}

	ranked, err := ranker.RankAll(c.Request.Context(), orders)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rank restaurants"})
		return
	}

	response := make([]DashboardOrder, 0, len(orders))
	for _, order := range orders {
		response = append(response, DashboardOrder{
			Order:       order,
			Total:       order.Total(),
			Restaurants: ranked[order.ID],
		})
	}

	c.JSON(http.StatusOK, response)
}

// ResolvePlaceRequest is the admin re-resolve payload.
type ResolvePlaceRequest struct {
	Address string `json:"address" binding:"required"`
}

// ResolvePlace drops the stored coordinates for an address and resolves it
// again through the provider. Stored places never expire on their own; this
// is the operator path for fixing a bad geocode.
// POST /internal/admin/places/resolve
func ResolvePlace(c *gin.Context) {
	var req ResolvePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	point, err := addressResolver.ForceResolve(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, geocoder.ErrUnresolved) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "address could not be resolved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve address"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":   req.Address,
		"latitude":  point.Latitude,
		"longitude": point.Longitude,
	})
}

// DistanceCacheStats reports the distance cache size.
// GET /internal/admin/cache/stats
func DistanceCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"entries": distanceCache.Len(),
	})
}
