package app

import (
	"errors"
	"time"

	"github.com/kedai-next/internal/config"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/provider"
	"github.com/kedai-next/internal/router"
	"github.com/kedai-next/internal/service"
	"github.com/kedai-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
	default:
		return nil, errors.New("unknown mode: " + mode)
	}

	container := provider.NewContainer(cfg)

	var services []Service
	serveHTTP := mode == ModeAll || mode == ModeAPI
	runJobs := mode == ModeAll || mode == ModeWorker

	// 初始化 HTTP 服务与跨实例事件订阅
	if serveHTTP {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		httpService := NewHTTPService(addr, engine)
		services = append(services, httpService)
		if container.Bridge != nil {
			services = append(services, container.Bridge)
		}
	}

	// 初始化 Worker 服务
	if runJobs {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else {
			logger.Infow("app_queue_worker_skipped", "reason", "queue_disabled")
		}
		if cfg.Payment.Reconcile.Enabled && container.PaymentService.Available() {
			services = append(services, worker.NewReconciler(cfg.Payment.Reconcile, container.PaymentService))
		}
	}

	// 营业状态推送：多实例时只由任务进程负责
	if runJobs || container.Bridge == nil {
		interval := time.Duration(cfg.Realtime.WindowCheckSeconds) * time.Second
		services = append(services, service.NewWindowWatcher(container.StoreConfigService, container.Publisher, interval))
	}

	// 如果没有服务被启动（例如模式错误或配置导致都没起），应该报错或至少打日志
	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode, "services", runner.Names())
	return RunWithOptions(runner, opts)
}
