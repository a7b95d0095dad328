package public

import (
	"strings"

	"github.com/kedai-next/internal/geo"
	"github.com/kedai-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// DeliveryQuoteRequest 配送报价请求
type DeliveryQuoteRequest struct {
	BranchCode string   `json:"branch_code"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

// QuoteDelivery 按目的地计算配送费
func (h *Handler) QuoteDelivery(c *gin.Context) {
	var req DeliveryQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondError(c, response.CodeBadRequest, "error.delivery_location_required", nil)
		return
	}
	destination := geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	pricing, err := h.OrderService.QuoteDelivery(c.Request.Context(), strings.TrimSpace(req.BranchCode), &destination)
	if err != nil {
		respondWithMappedError(c, err, deliveryErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{
		"branch":      pricing.Branch,
		"distance_km": pricing.Quote.DistanceKm,
		"fee":         pricing.Quote.Fee.StringFixed(2),
		"degraded":    pricing.Quote.Degraded,
		"currency":    pricing.Currency,
	})
}

// SearchGeocode 地址搜索代理，同一会话只返回最新一次查询
func (h *Handler) SearchGeocode(c *gin.Context) {
	places, err := h.GeocodeService.Search(c.Request.Context(), geocodeSession(c), c.Query("q"))
	if err != nil {
		respondWithMappedError(c, err, geocodeErrorRules, response.CodeInternal, "error.geocode_unavailable")
		return
	}
	response.Success(c, places)
}
