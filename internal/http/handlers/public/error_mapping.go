package public

import (
	"errors"

	"github.com/kedai-next/internal/geocode"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/i18n"
	"github.com/kedai-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	var closed *service.WindowClosedError
	if errors.As(err, &closed) {
		respondStoreClosed(c, closed)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// respondStoreClosed 营业时间外，返回营业时段与当前状态
func respondStoreClosed(c *gin.Context, closed *service.WindowClosedError) {
	status := closed.Status
	msg := i18n.Sprintf(i18n.ResolveLocale(c), "error.store_closed", status.OpenHour, status.CloseHour)
	response.ErrorWithData(c, response.CodeStoreClosed, msg, gin.H{"store_status": status})
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrCartSessionRequired, code: response.CodeBadRequest, key: "error.cart_session_required"},
	{target: service.ErrCartItemInvalid, code: response.CodeBadRequest, key: "error.cart_item_invalid"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, key: "error.cart_item_not_found"},
	{target: service.ErrProductUnavailable, code: response.CodeBadRequest, key: "error.product_unavailable"},
	{target: service.ErrCartUnavailable, code: response.CodeServiceUnavailable, key: "error.cart_unavailable"},
}

var orderInputErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, key: "error.cart_empty"},
	{target: service.ErrCustomerNameRequired, code: response.CodeBadRequest, key: "error.customer_name_required"},
	{target: service.ErrCustomerPhoneRequired, code: response.CodeBadRequest, key: "error.customer_phone_required"},
	{target: service.ErrCustomerAddressRequired, code: response.CodeBadRequest, key: "error.customer_address_required"},
	{target: service.ErrDeliveryLocationRequired, code: response.CodeBadRequest, key: "error.delivery_location_required"},
	{target: service.ErrOrderTypeInvalid, code: response.CodeBadRequest, key: "error.order_type_invalid"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, key: "error.payment_method_invalid"},
	{target: service.ErrGatewayAmountNotWhole, code: response.CodeBadRequest, key: "error.gateway_amount_not_whole"},
	{target: service.ErrBranchNotFound, code: response.CodeBadRequest, key: "error.branch_not_found"},
	{target: service.ErrOrderCreateFailed, code: response.CodeInternal, key: "error.order_create_failed"},
}

var checkoutErrorRules = concatMappedHandlerErrors(cartErrorRules, orderInputErrorRules, []mappedHandlerError{
	{target: service.ErrCheckoutInProgress, code: response.CodeConflict, key: "error.checkout_in_progress"},
})

var orderLookupErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderFetchFailed, code: response.CodeInternal, key: "error.order_fetch_failed"},
}

var orderEventsErrorRules = concatMappedHandlerErrors(orderLookupErrorRules, []mappedHandlerError{
	{target: service.ErrRealtimeUnavailable, code: response.CodeServiceUnavailable, key: "error.realtime_unavailable"},
})

var paymentErrorRules = concatMappedHandlerErrors(orderLookupErrorRules, []mappedHandlerError{
	{target: service.ErrOrderNotGateway, code: response.CodeBadRequest, key: "error.payment_method_not_gateway"},
	{target: service.ErrOrderNotPending, code: response.CodeConflict, key: "error.order_not_pending"},
	{target: service.ErrOrderUpdateFailed, code: response.CodeInternal, key: "error.order_update_failed"},
	{target: service.ErrPaymentUnavailable, code: response.CodeServiceUnavailable, key: "error.payment_gateway_unavailable"},
	{target: service.ErrPaymentRequestFailed, code: response.CodeBadGateway, key: "error.payment_failed"},
	{target: service.ErrPaymentSignatureInvalid, code: response.CodeForbidden, key: "error.payment_signature_invalid"},
	{target: service.ErrPaymentAmountMismatch, code: response.CodeBadRequest, key: "error.payment_amount_mismatch"},
	{target: service.ErrGatewayAmountNotWhole, code: response.CodeBadRequest, key: "error.gateway_amount_not_whole"},
})

var assistedErrorRules = concatMappedHandlerErrors(orderLookupErrorRules, []mappedHandlerError{
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, key: "error.payment_method_invalid"},
})

var deliveryErrorRules = []mappedHandlerError{
	{target: service.ErrBranchNotFound, code: response.CodeBadRequest, key: "error.branch_not_found"},
}

var geocodeErrorRules = []mappedHandlerError{
	{target: geocode.ErrQueryInvalid, code: response.CodeBadRequest, key: "error.geocode_query_invalid"},
	{target: geocode.ErrSuperseded, code: response.CodeConflict, key: "error.geocode_superseded"},
	{target: geocode.ErrUnavailable, code: response.CodeServiceUnavailable, key: "error.geocode_unavailable"},
}
