package worker

import (
	"context"
	"time"

	"github.com/kedai-next/internal/config"
	"github.com/kedai-next/internal/logger"
)

const defaultReconcileInterval = 2 * time.Minute

// PendingReconciler 待支付订单对账接口
type PendingReconciler interface {
	ReconcilePending(ctx context.Context) (int, error)
}

// Reconciler 定时向网关查询超时未回调的订单
type Reconciler struct {
	payments PendingReconciler
	interval time.Duration
}

// NewReconciler 创建对账服务
func NewReconciler(cfg config.ReconcileConfig, payments PendingReconciler) *Reconciler {
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	return &Reconciler{payments: payments, interval: interval}
}

// Name 服务名称
func (r *Reconciler) Name() string {
	return "payment_reconciler"
}

// Start 启动对账循环，阻塞直到 ctx 结束
func (r *Reconciler) Start(ctx context.Context) error {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// Stop 停止服务
func (r *Reconciler) Stop(ctx context.Context) error {
	_ = ctx
	return nil
}

// RunOnce 执行一轮对账
func (r *Reconciler) RunOnce(ctx context.Context) int {
	if r == nil || r.payments == nil {
		return 0
	}
	applied, err := r.payments.ReconcilePending(ctx)
	if err != nil {
		logger.Warnw("worker_payment_reconcile_failed", "error", err)
		return applied
	}
	if applied > 0 {
		logger.Infow("worker_payment_reconcile_applied", "count", applied)
	}
	return applied
}
