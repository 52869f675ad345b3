package lib

import (
	"context"
	"errors"

	"github.com/fiffu/tickerdigest/config"
	"github.com/fiffu/tickerdigest/lib/models"
	"github.com/fiffu/tickerdigest/lib/runner"
	"github.com/fiffu/tickerdigest/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type Service struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	senders senders.Registry
	runner  *runner.Runner

	*onboardUser
	*subscribe
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB, run *runner.Runner, senders senders.Registry) *Service {
	return &Service{
		cfg, log, db, senders, run,
		&onboardUser{cfg, log, db, senders},
		&subscribe{cfg, log, db},
	}
}

func (svc *Service) VerifyNotifier(ctx context.Context, nonce string) (bool, error) {
	confirm := models.NotifierConfirmation{}
	tx := svc.db.Where("nonce = ?", nonce).First(&confirm)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	tx = svc.db.Model(&models.Notifier{}).Where("id = ?", confirm.NotifierID).Update("verified", true)
	if err := tx.Error; err != nil {
		return false, err
	}

	return true, nil
}

// RunSubscription executes one subscription on demand, after checking it
// belongs to the calling user.
func (svc *Service) RunSubscription(ctx context.Context, userID, subscriptionID uint, trigger models.Trigger) (runner.Outcome, error) {
	sub, err := svc.findOwned(ctx, userID, subscriptionID)
	if err != nil {
		return runner.Outcome{}, err
	}
	return svc.runner.Run(ctx, sub, trigger)
}

func (svc *Service) ListSubscriptions(ctx context.Context, userID uint) (models.Subscriptions, error) {
	var subs models.Subscriptions
	tx := svc.db.
		Where("user_id = ?", userID).
		InnerJoins("Notifier").
		Find(&subs)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (svc *Service) ListDeliveries(ctx context.Context, userID, subscriptionID uint) (models.Deliveries, error) {
	if _, err := svc.findOwned(ctx, userID, subscriptionID); err != nil {
		return nil, err
	}

	var deliveries models.Deliveries
	tx := svc.db.
		Where("subscription_id = ?", subscriptionID).
		Order("created_at desc").
		Find(&deliveries)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (svc *Service) findOwned(ctx context.Context, userID, subscriptionID uint) (*models.Subscription, error) {
	sub := &models.Subscription{}
	tx := svc.db.
		Where("user_id = ?", userID).
		Where("id = ?", subscriptionID).
		First(sub)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	} else if err != nil {
		return nil, err
	}
	return sub, nil
}
