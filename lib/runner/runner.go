package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fiffu/tickerdigest/lib/analysis"
	"github.com/fiffu/tickerdigest/lib/models"
	"github.com/fiffu/tickerdigest/lib/schedule"
	"github.com/fiffu/tickerdigest/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// fallbackPeriod is used when a subscription has no usable NextRunAt to
// advance from.
const fallbackPeriod = 24 * time.Hour

func NewRunner(lc fx.Lifecycle, log *zap.Logger, repo Repository, client analysis.Client, senders senders.Registry) *Runner {
	return &Runner{log, repo, client, senders, newSubscriptionLocks(), time.Now}
}

type Runner struct {
	log      *zap.Logger
	repo     Repository
	analysis analysis.Client
	senders  senders.Registry

	locks *subscriptionLocks
	now   func() time.Time
}

// Run executes one subscription once: fetch the analysis report, resolve the
// recipient, send the digest, then persist the outcome and (on success) the
// advanced schedule. Upstream failures are folded into the Outcome; the error
// return is non-nil only when the final writes themselves fail.
func (r *Runner) Run(ctx context.Context, sub *models.Subscription, trigger models.Trigger) (Outcome, error) {
	if !sub.Enabled {
		return Skipped("disabled"), nil
	}

	r.locks.Lock(sub.ID)
	defer r.locks.Unlock(sub.ID)

	if err := r.execute(ctx, sub); err != nil {
		return r.recordFailure(ctx, sub, trigger, err)
	}
	return r.recordSent(ctx, sub, trigger)
}

func (r *Runner) execute(ctx context.Context, sub *models.Subscription) error {
	report, err := r.analysis.Fetch(ctx, sub.Symbol)
	if err != nil {
		return &UpstreamError{err}
	}

	notifier, err := r.repo.ResolveRecipient(ctx, sub.UserID)
	if err != nil {
		return &RecipientResolutionError{UserID: sub.UserID, Err: err}
	}

	sender, ok := r.senders[notifier.Platform]
	if !ok {
		return fmt.Errorf("unsupported notifier platform: %s", notifier.Platform)
	}

	id, err := sender.SendDigest(ctx, notifier, sub, report)
	if err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	r.log.Sugar().Infow("Sent digest", "subscription_id", sub.ID, "symbol", sub.Symbol, "message_id", id)
	return nil
}

func (r *Runner) recordSent(ctx context.Context, sub *models.Subscription, trigger models.Trigger) (Outcome, error) {
	ranAt := r.now().UTC()
	nextRunAt := r.nextOccurrence(sub, ranAt)

	if err := r.repo.MarkSent(ctx, sub.ID, ranAt, nextRunAt); err != nil {
		return Outcome{}, &PersistenceError{"subscription update", err}
	}
	delivery := &models.Delivery{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Symbol:         sub.Symbol,
		Status:         models.RunStatusSent,
		Trigger:        trigger,
	}
	if err := r.repo.AppendDelivery(ctx, delivery); err != nil {
		return Outcome{}, &PersistenceError{"delivery insert", err}
	}

	return Sent(nextRunAt), nil
}

func (r *Runner) recordFailure(ctx context.Context, sub *models.Subscription, trigger models.Trigger, cause error) (Outcome, error) {
	ranAt := r.now().UTC()
	message := cause.Error()
	r.log.Sugar().Warnw("Subscription run failed", "subscription_id", sub.ID, "symbol", sub.Symbol, "err", cause)

	if err := r.repo.MarkFailed(ctx, sub.ID, ranAt, message); err != nil {
		return Outcome{}, &PersistenceError{"subscription update", err}
	}
	delivery := &models.Delivery{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Symbol:         sub.Symbol,
		Status:         models.RunStatusError,
		Trigger:        trigger,
		Error:          message,
	}
	if err := r.repo.AppendDelivery(ctx, delivery); err != nil {
		return Outcome{}, &PersistenceError{"delivery insert", err}
	}

	return Failed(message), nil
}

// nextOccurrence advances from the previous scheduled slot, not from the
// actual execution time, so a late run doesn't shift the cadence.
func (r *Runner) nextOccurrence(sub *models.Subscription, ranAt time.Time) time.Time {
	if sub.NextRunAt.IsZero() {
		return ranAt.Add(fallbackPeriod)
	}

	next, err := schedule.AdvanceFrom(sub.NextRunAt, sub.Frequency, sub.Timezone, sub.SendHour, sub.SendMinute)
	if err != nil {
		r.log.Sugar().Warnw("Failed to advance schedule, falling back to 24h",
			"subscription_id", sub.ID, "err", err)
		return ranAt.Add(fallbackPeriod)
	}
	return next
}

// subscriptionLocks serializes runs of the same subscription id within this
// process. Distinct ids run concurrently.
type subscriptionLocks struct {
	mu    sync.Mutex
	byID  map[uint]*sync.Mutex
}

func newSubscriptionLocks() *subscriptionLocks {
	return &subscriptionLocks{byID: make(map[uint]*sync.Mutex)}
}

func (l *subscriptionLocks) Lock(id uint) {
	l.mu.Lock()
	m, ok := l.byID[id]
	if !ok {
		m = &sync.Mutex{}
		l.byID[id] = m
	}
	l.mu.Unlock()
	m.Lock()
}

func (l *subscriptionLocks) Unlock(id uint) {
	l.mu.Lock()
	m := l.byID[id]
	l.mu.Unlock()
	m.Unlock()
}
