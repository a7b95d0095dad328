package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/i18n"
	"github.com/kedai-next/internal/models"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	assistedWhatsAppBase = "https://wa.me/"
	defaultQRCodeSize    = 256
)

// AssistedInstructions 人工确认支付指引
type AssistedInstructions struct {
	OrderNo      string `json:"order_no"`
	ContactPhone string `json:"contact_phone"`
	Message      string `json:"message"`
	ContactURL   string `json:"contact_url"`
	QRCodePath   string `json:"qr_code_path"`
}

// AssistedService 人工确认支付：生成带订单摘要的联系链接与二维码
type AssistedService struct {
	storeConfig  *StoreConfigService
	orderService *OrderService
}

// NewAssistedService 创建服务
func NewAssistedService(storeConfig *StoreConfigService, orderService *OrderService) *AssistedService {
	return &AssistedService{storeConfig: storeConfig, orderService: orderService}
}

// Instructions 生成订单的联系指引
func (s *AssistedService) Instructions(ctx context.Context, order *models.Order, locale string) (*AssistedInstructions, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	cfg, err := s.storeConfig.Get(ctx)
	if err != nil {
		return nil, err
	}
	message := i18n.Sprintf(locale, "assisted.message", order.OrderNo, order.TotalPrice.Decimal.StringFixed(0), order.Currency)
	phone := normalizeWhatsAppPhone(cfg.AssistedContactPhone)
	return &AssistedInstructions{
		OrderNo:      order.OrderNo,
		ContactPhone: phone,
		Message:      message,
		ContactURL:   buildContactURL(phone, message),
		QRCodePath:   fmt.Sprintf("/api/v1/public/orders/%s/assist-qr", url.PathEscape(order.OrderNo)),
	}, nil
}

// QRCode 订单联系链接的二维码 PNG
func (s *AssistedService) QRCode(ctx context.Context, orderNo, locale string, size int) ([]byte, error) {
	order, err := s.orderService.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != constants.PaymentMethodAssisted {
		return nil, ErrPaymentMethodInvalid
	}
	instructions, err := s.Instructions(ctx, order, locale)
	if err != nil {
		return nil, err
	}
	if size <= 0 || size > 1024 {
		size = defaultQRCodeSize
	}
	return qrcode.Encode(instructions.ContactURL, qrcode.Medium, size)
}

func buildContactURL(phone, message string) string {
	query := url.Values{}
	query.Set("text", message)
	return assistedWhatsAppBase + phone + "?" + query.Encode()
}

// normalizeWhatsAppPhone 只保留数字，本地 0 开头转为 62 国家码
func normalizeWhatsAppPhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + strings.TrimPrefix(digits, "0")
	}
	return digits
}
