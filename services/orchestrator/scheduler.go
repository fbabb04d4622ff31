package orchestrator

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"rankboard/pkg/config"
)

type Scheduler struct {
	service  *Service
	interval time.Duration
}

func NewScheduler(cfg *config.Config, svc *Service) *Scheduler {
	return &Scheduler{
		service:  svc,
		interval: cfg.Orchestrator.RecomputeInterval,
	}
}

// StartScheduler wires the recompute loop into the fx lifecycle.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// run triggers a full recompute cycle on every tick until stopped.
func (s *Scheduler) run(ctx context.Context) {
	zap.L().Info("[Scheduler] started recompute scheduler",
		zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			if err := s.service.RecomputeAll(ctx); err != nil {
				zap.L().Error("[Scheduler] recompute cycle failed", zap.Error(err))
				continue
			}
			zap.L().Info("[Scheduler] recompute cycle done",
				zap.Duration("duration", time.Since(start)))
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}
