package public

import (
	"github.com/kedai-next/internal/cart"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加购请求
type CartItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note"`
}

// CartQuantityRequest 修改数量请求
type CartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart 获取购物车；未携带会话时签发新会话
func (h *Handler) GetCart(c *gin.Context) {
	sessionID := cartSession(c)
	if sessionID == "" {
		sessionID = service.NewSessionID()
		c.Header(cartSessionHeader, sessionID)
		response.Success(c, service.BuildCartView(cart.New(sessionID)))
		return
	}
	current, err := h.CartService.Get(c.Request.Context(), sessionID)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, service.BuildCartView(current))
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	updated, err := h.CartService.AddItem(c.Request.Context(), cartSession(c), service.AddCartItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, service.BuildCartView(updated))
}

// UpdateCartItem 修改购物车行数量，数量小于 1 时移除
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	updated, err := h.CartService.UpdateQuantity(c.Request.Context(), cartSession(c), c.Param("key"), *req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, service.BuildCartView(updated))
}

// DeleteCartItem 移除购物车行
func (h *Handler) DeleteCartItem(c *gin.Context) {
	updated, err := h.CartService.RemoveItem(c.Request.Context(), cartSession(c), c.Param("key"))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, service.BuildCartView(updated))
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	sessionID := cartSession(c)
	if err := h.CartService.Clear(c.Request.Context(), sessionID); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_unavailable")
		return
	}
	response.Success(c, service.BuildCartView(cart.New(sessionID)))
}
