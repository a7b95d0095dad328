package service

import (
	"errors"
	"fmt"

	"github.com/kedai-next/internal/storehours"
)

// 错误类别，用 errors.Is 判断
var (
	ErrValidation           = errors.New("validation failed")
	ErrOrderingWindowClosed = errors.New("ordering window closed")
	ErrPersistence          = errors.New("persistence failed")
	ErrPaymentGateway       = errors.New("payment gateway error")
)

// 校验类错误
var (
	ErrCustomerNameRequired     = fmt.Errorf("%w: customer name required", ErrValidation)
	ErrCustomerPhoneRequired    = fmt.Errorf("%w: customer phone required", ErrValidation)
	ErrCustomerAddressRequired  = fmt.Errorf("%w: delivery address required", ErrValidation)
	ErrDeliveryLocationRequired = fmt.Errorf("%w: delivery location required", ErrValidation)
	ErrOrderTypeInvalid         = fmt.Errorf("%w: order type invalid", ErrValidation)
	ErrPaymentMethodInvalid     = fmt.Errorf("%w: payment method invalid", ErrValidation)
	ErrCartSessionRequired      = fmt.Errorf("%w: cart session required", ErrValidation)
	ErrCartEmpty                = fmt.Errorf("%w: cart empty", ErrValidation)
	ErrCartItemInvalid          = fmt.Errorf("%w: cart item invalid", ErrValidation)
	ErrCartItemNotFound         = fmt.Errorf("%w: cart item not found", ErrValidation)
	ErrProductUnavailable       = fmt.Errorf("%w: product unavailable", ErrValidation)
	ErrBranchNotFound           = fmt.Errorf("%w: branch not found", ErrValidation)
	ErrStoreConfigInvalid       = fmt.Errorf("%w: store config invalid", ErrValidation)
	ErrGatewayAmountNotWhole    = fmt.Errorf("%w: gateway amounts must be whole currency units", ErrValidation)
)

// 持久化类错误
var (
	ErrOrderCreateFailed  = fmt.Errorf("%w: order create failed", ErrPersistence)
	ErrOrderFetchFailed   = fmt.Errorf("%w: order fetch failed", ErrPersistence)
	ErrOrderUpdateFailed  = fmt.Errorf("%w: order update failed", ErrPersistence)
	ErrCartUnavailable    = fmt.Errorf("%w: cart store unavailable", ErrPersistence)
	ErrSettingsSaveFailed = fmt.Errorf("%w: settings save failed", ErrPersistence)
)

// 支付网关类错误
var (
	ErrPaymentUnavailable      = fmt.Errorf("%w: gateway unavailable", ErrPaymentGateway)
	ErrPaymentRequestFailed    = fmt.Errorf("%w: gateway request failed", ErrPaymentGateway)
	ErrPaymentSignatureInvalid = fmt.Errorf("%w: notification signature invalid", ErrPaymentGateway)
	ErrPaymentAmountMismatch   = fmt.Errorf("%w: amount mismatch", ErrPaymentGateway)
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderStatusInvalid   = errors.New("order status transition not allowed")
	ErrOrderStatusConflict  = errors.New("order status changed concurrently")
	ErrOrderNotPending      = errors.New("order is not awaiting payment")
	ErrOrderNotGateway      = errors.New("order does not use gateway payment")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAdminTokenRevoked    = errors.New("admin token revoked")
	ErrAuditPayloadRequired = errors.New("audit action required")
	ErrRealtimeUnavailable  = errors.New("realtime unavailable")
	ErrCheckoutInProgress   = errors.New("checkout already in progress")
)

// WindowClosedError 携带营业时间的关闭错误
type WindowClosedError struct {
	Status storehours.Status
}

func (e *WindowClosedError) Error() string {
	return fmt.Sprintf("ordering window closed: open %02d:00-%02d:00 %s", e.Status.OpenHour, e.Status.CloseHour, e.Status.Timezone)
}

// Unwrap 归类为 ErrOrderingWindowClosed
func (e *WindowClosedError) Unwrap() error {
	return ErrOrderingWindowClosed
}
