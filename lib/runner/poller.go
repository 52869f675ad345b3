package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fiffu/tickerdigest/config"
	"github.com/fiffu/tickerdigest/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Poller is the scheduled trigger surface: it wakes up on a fixed interval,
// selects due subscriptions and runs each of them once.
func NewPoller(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, repo Repository, runner *Runner) *Poller {
	poller := &Poller{
		log:       log,
		repo:      repo,
		runner:    runner,
		interval:  time.Duration(cfg.Poller.IntervalSecs) * time.Second,
		batchSize: cfg.Poller.Concurrency,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go poller.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop poller")
			poller.Stop()
			return nil
		},
	})

	return poller
}

type Poller struct {
	log    *zap.Logger
	repo   Repository
	runner *Runner

	interval  time.Duration
	batchSize int
	cancel    context.CancelFunc
}

func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Sugar().Info("Poller stopped")
			return

		case wakeupTime := <-ticker.C:
			p.sweep(ctx, wakeupTime.UTC())
		}
	}
}

func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) sweep(ctx context.Context, wakeupTime time.Time) {
	metrics := &sweepMetrics{}

	err := p.repo.DueSubscriptions(ctx, wakeupTime, p.batchSize, func(batch models.Subscriptions) error {
		p.runBatch(ctx, batch, metrics)
		return nil
	})
	if err != nil {
		p.log.Sugar().Errorw("Failed to fetch due subscriptions", "err", err)
		return
	}

	if metrics.selected > 0 {
		elapsed := time.Now().UTC().Sub(wakeupTime)
		p.log.Sugar().Infow(
			fmt.Sprintf("Processed %d due subscriptions", metrics.selected),
			"sent", metrics.sent, "failed", metrics.failed, "skipped", metrics.skipped,
			"elapsed_msecs", int(elapsed.Milliseconds()),
		)
	}
}

func (p *Poller) runBatch(ctx context.Context, batch models.Subscriptions, metrics *sweepMetrics) {
	var wg sync.WaitGroup

	for _, sub := range batch {
		wg.Add(1)

		go func(sub *models.Subscription) {
			defer wg.Done()

			outcome, err := p.runner.Run(ctx, sub, models.TriggerScheduled)
			if err != nil {
				p.log.Sugar().Errorw("Failed to persist run outcome", "subscription_id", sub.ID, "err", err)
			}
			metrics.Record(outcome, err)
		}(sub)
	}

	wg.Wait()
}

type sweepMetrics struct {
	mu       sync.Mutex
	selected int
	sent     int
	failed   int
	skipped  int
}

func (m *sweepMetrics) Record(outcome Outcome, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.selected += 1
	switch {
	case err != nil:
		m.failed += 1
	case outcome.Kind == OutcomeSent:
		m.sent += 1
	case outcome.Kind == OutcomeFailed:
		m.failed += 1
	case outcome.Kind == OutcomeSkipped:
		m.skipped += 1
	}
}
