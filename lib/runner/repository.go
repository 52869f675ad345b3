package runner

import (
	"context"
	"time"

	"github.com/fiffu/tickerdigest/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository is the persistence surface the runner needs. Kept small so tests
// can swap in an in-memory fake.
type Repository interface {
	// ResolveRecipient returns the user's verified notifier, or
	// gorm.ErrRecordNotFound when none exists.
	ResolveRecipient(ctx context.Context, userID uint) (*models.Notifier, error)

	// MarkSent records a successful run and advances the schedule.
	MarkSent(ctx context.Context, subscriptionID uint, ranAt, nextRunAt time.Time) error

	// MarkFailed records a failed run. NextRunAt is left untouched, so the
	// subscription stays due and is retried on the next sweep.
	MarkFailed(ctx context.Context, subscriptionID uint, ranAt time.Time, message string) error

	AppendDelivery(ctx context.Context, delivery *models.Delivery) error

	// DueSubscriptions streams enabled subscriptions with NextRunAt <= now,
	// in batches of batchSize.
	DueSubscriptions(ctx context.Context, now time.Time, batchSize int, fn func(models.Subscriptions) error) error
}

func NewRepository(lc fx.Lifecycle, log *zap.Logger, db *gorm.DB) Repository {
	return &gormRepository{db}
}

type gormRepository struct {
	db *gorm.DB
}

func (r *gormRepository) ResolveRecipient(ctx context.Context, userID uint) (*models.Notifier, error) {
	notifier := &models.Notifier{}
	tx := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("verified = ?", true).
		First(notifier)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return notifier, nil
}

func (r *gormRepository) MarkSent(ctx context.Context, subscriptionID uint, ranAt, nextRunAt time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]any{
			"last_run_at": ranAt,
			"last_status": models.RunStatusSent,
			"last_error":  nil,
			"next_run_at": nextRunAt,
		})
	return tx.Error
}

func (r *gormRepository) MarkFailed(ctx context.Context, subscriptionID uint, ranAt time.Time, message string) error {
	tx := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]any{
			"last_run_at": ranAt,
			"last_status": models.RunStatusError,
			"last_error":  message,
		})
	return tx.Error
}

func (r *gormRepository) AppendDelivery(ctx context.Context, delivery *models.Delivery) error {
	tx := r.db.WithContext(ctx).Create(delivery)
	return tx.Error
}

func (r *gormRepository) DueSubscriptions(ctx context.Context, now time.Time, batchSize int, fn func(models.Subscriptions) error) error {
	var subs models.Subscriptions
	tx := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("next_run_at <= ?", now).
		FindInBatches(&subs, batchSize, func(tx *gorm.DB, batch int) error {
			return fn(subs)
		})
	return tx.Error
}
