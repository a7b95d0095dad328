package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusProcessed = "processed"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// 订单类型常量
const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
)

// 支付方式常量
const (
	PaymentMethodAssisted = "assisted"
	PaymentMethodGateway  = "gateway"
)

// 设置键常量
const (
	SettingKeyStoreConfig = "store_config"
)

// 审计动作常量
const (
	AuditActionLogin                = "auth.login"
	AuditActionLoginFailed          = "auth.login_failed"
	AuditActionOrderCreate          = "order.create"
	AuditActionOrderStatusChange    = "order.status_change"
	AuditActionPaymentSessionCreate = "payment.session_create"
	AuditActionPaymentOutcome       = "payment.outcome"
	AuditActionStoreSettingsUpdate  = "settings.store_update"
)

// 审计操作者常量
const (
	AuditActorCustomer = "customer"
	AuditActorGateway  = "gateway"
	AuditActorSystem   = "system"
)

// 队列与任务常量
const (
	QueueDefault    = "default"
	TaskAuditRecord = "audit:record"
)
