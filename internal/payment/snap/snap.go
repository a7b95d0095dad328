package snap

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("snap config invalid")
	ErrRequestFailed    = errors.New("snap request failed")
	ErrResponseInvalid  = errors.New("snap response invalid")
	ErrSignatureInvalid = errors.New("snap signature invalid")
)

const (
	defaultSnapBaseURL = "https://app.sandbox.midtrans.com/snap"
	defaultAPIBaseURL  = "https://api.sandbox.midtrans.com"
	defaultTimeout     = 12 * time.Second

	// ShippingItemID 运费行固定 ID
	ShippingItemID = "shipping"
)

// 网关交易结果
const (
	OutcomeSuccess = "success"
	OutcomePending = "pending"
	OutcomeFailed  = "failed"
)

// Config Snap 渠道配置
type Config struct {
	ServerKey  string `json:"server_key"`
	ClientKey  string `json:"client_key"`
	SnapURL    string `json:"snap_url"`
	APIBaseURL string `json:"api_base_url"`
	FinishURL  string `json:"finish_url"`
	TimeoutSec int    `json:"timeout_seconds"`
}

// Item 网关行项目
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Customer 客户信息
type Customer struct {
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`
}

// CreateInput 创建交易输入
type CreateInput struct {
	OrderNo     string
	GrossAmount decimal.Decimal
	Items       []Item
	ShippingFee decimal.Decimal
	Customer    Customer
	FinishURL   string
}

// CreateResult 创建交易返回
type CreateResult struct {
	Token       string
	RedirectURL string
}

// StatusResult 交易状态
type StatusResult struct {
	OrderNo           string
	TransactionID     string
	TransactionStatus string
	FraudStatus       string
	StatusCode        string
	GrossAmount       string
	PaymentType       string
	Outcome           string
}

// Notification 网关异步通知
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	SignatureKey      string `json:"signature_key"`
}

type createRequest struct {
	TransactionDetails transactionDetails `json:"transaction_details"`
	ItemDetails        []Item             `json:"item_details"`
	CustomerDetails    Customer           `json:"customer_details"`
	Callbacks          *callbacks         `json:"callbacks,omitempty"`
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type callbacks struct {
	Finish string `json:"finish"`
}

type createResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

// ParseConfig 解析配置
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Normalize 填充默认值
func (c *Config) Normalize() {
	c.ServerKey = strings.TrimSpace(c.ServerKey)
	c.ClientKey = strings.TrimSpace(c.ClientKey)
	c.SnapURL = strings.TrimRight(strings.TrimSpace(c.SnapURL), "/")
	if c.SnapURL == "" {
		c.SnapURL = defaultSnapBaseURL
	}
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	c.FinishURL = strings.TrimSpace(c.FinishURL)
	if c.TimeoutSec <= 0 {
		c.TimeoutSec = int(defaultTimeout / time.Second)
	}
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ServerKey) == "" {
		return fmt.Errorf("%w: server_key is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.SnapURL); err != nil {
		return fmt.Errorf("%w: snap_url is invalid", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	if cfg.FinishURL != "" {
		if _, err := url.ParseRequestURI(cfg.FinishURL); err != nil {
			return fmt.Errorf("%w: finish_url is invalid", ErrConfigInvalid)
		}
	}
	return nil
}

// BuildItems 生成行项目，运费行始终存在
func BuildItems(items []Item, shippingFee decimal.Decimal) []Item {
	result := make([]Item, 0, len(items)+1)
	result = append(result, items...)
	result = append(result, Item{
		ID:       ShippingItemID,
		Name:     "Shipping",
		Price:    toWholeAmount(shippingFee),
		Quantity: 1,
	})
	return result
}

// CreateTransaction 创建 Snap 交易
func CreateTransaction(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" {
		return nil, fmt.Errorf("%w: order_no is required", ErrConfigInvalid)
	}
	gross := toWholeAmount(input.GrossAmount)
	items := BuildItems(input.Items, input.ShippingFee)
	var itemSum int64
	for _, item := range items {
		itemSum += item.Price * int64(item.Quantity)
	}
	if itemSum != gross {
		return nil, fmt.Errorf("%w: item sum %d does not match gross %d", ErrConfigInvalid, itemSum, gross)
	}

	body := createRequest{
		TransactionDetails: transactionDetails{OrderID: orderNo, GrossAmount: gross},
		ItemDetails:        items,
		CustomerDetails:    input.Customer,
	}
	finishURL := strings.TrimSpace(input.FinishURL)
	if finishURL == "" {
		finishURL = cfg.FinishURL
	}
	if finishURL != "" {
		body.Callbacks = &callbacks{Finish: finishURL}
	}

	var result createResponse
	resp, err := newClient(cfg, cfg.SnapURL).R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post("/v1/transactions")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: create transaction status %d %s", ErrResponseInvalid, resp.StatusCode(), strings.Join(result.ErrorMessages, "; "))
	}
	if strings.TrimSpace(result.Token) == "" || strings.TrimSpace(result.RedirectURL) == "" {
		return nil, fmt.Errorf("%w: missing token or redirect_url", ErrResponseInvalid)
	}
	return &CreateResult{
		Token:       strings.TrimSpace(result.Token),
		RedirectURL: strings.TrimSpace(result.RedirectURL),
	}, nil
}

// QueryStatus 查询交易状态
func QueryStatus(ctx context.Context, cfg *Config, orderNo string) (*StatusResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, fmt.Errorf("%w: order_no is required", ErrConfigInvalid)
	}

	var raw Notification
	resp, err := newClient(cfg, cfg.APIBaseURL).R().
		SetContext(ctx).
		SetResult(&raw).
		Get("/v2/" + url.PathEscape(orderNo) + "/status")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: query status %d", ErrResponseInvalid, resp.StatusCode())
	}
	// 未找到交易时 HTTP 200 但 status_code 为 404
	if strings.TrimSpace(raw.StatusCode) == "404" {
		return &StatusResult{OrderNo: orderNo, StatusCode: "404", Outcome: OutcomePending}, nil
	}
	if strings.TrimSpace(raw.OrderID) != "" && strings.TrimSpace(raw.OrderID) != orderNo {
		return nil, fmt.Errorf("%w: order_id mismatch", ErrResponseInvalid)
	}
	return toStatusResult(orderNo, raw), nil
}

// VerifyAndParseNotification 校验签名并解析通知
func VerifyAndParseNotification(cfg *Config, body []byte) (*StatusResult, error) {
	if cfg == nil || strings.TrimSpace(cfg.ServerKey) == "" {
		return nil, fmt.Errorf("%w: server_key is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("%w: decode notification failed", ErrResponseInvalid)
	}
	n.OrderID = strings.TrimSpace(n.OrderID)
	if n.OrderID == "" {
		return nil, fmt.Errorf("%w: missing order_id", ErrResponseInvalid)
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, cfg.ServerKey)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(n.SignatureKey))), []byte(expected)) != 1 {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}
	return toStatusResult(n.OrderID, n), nil
}

// Signature 计算通知签名 sha512(order_id+status_code+gross_amount+server_key)
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// MapTransactionStatus 将网关状态映射为结果
func MapTransactionStatus(transactionStatus, fraudStatus string) string {
	switch strings.ToLower(strings.TrimSpace(transactionStatus)) {
	case "capture":
		if strings.EqualFold(strings.TrimSpace(fraudStatus), "challenge") {
			return OutcomePending
		}
		return OutcomeSuccess
	case "settlement":
		return OutcomeSuccess
	case "deny", "cancel", "expire", "failure":
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

// AmountMatches 校验网关金额与订单金额一致
func AmountMatches(grossAmount string, expected decimal.Decimal) bool {
	amount, err := decimal.NewFromString(strings.TrimSpace(grossAmount))
	if err != nil {
		return false
	}
	return amount.Round(2).Equal(expected.Round(2))
}

func toStatusResult(orderNo string, n Notification) *StatusResult {
	return &StatusResult{
		OrderNo:           orderNo,
		TransactionID:     strings.TrimSpace(n.TransactionID),
		TransactionStatus: strings.TrimSpace(n.TransactionStatus),
		FraudStatus:       strings.TrimSpace(n.FraudStatus),
		StatusCode:        strings.TrimSpace(n.StatusCode),
		GrossAmount:       strings.TrimSpace(n.GrossAmount),
		PaymentType:       strings.TrimSpace(n.PaymentType),
		Outcome:           MapTransactionStatus(n.TransactionStatus, n.FraudStatus),
	}
}

func newClient(cfg *Config, baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(time.Duration(cfg.TimeoutSec)*time.Second).
		SetBasicAuth(cfg.ServerKey, "").
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
}

func toWholeAmount(amount decimal.Decimal) int64 {
	if amount.IsNegative() {
		return 0
	}
	return amount.Ceil().IntPart()
}
