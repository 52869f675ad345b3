package lib

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fiffu/tickerdigest/config"
	"github.com/fiffu/tickerdigest/lib/models"
	"github.com/fiffu/tickerdigest/lib/schedule"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscribe struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func (svc *subscribe) CreateSubscription(ctx context.Context, userID uint, symbol string, freq models.Frequency, tz string, hour, minute int) (*models.Subscription, error) {
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if !freq.Valid() {
		return nil, fmt.Errorf("unknown frequency %q", freq)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("send time %02d:%02d out of range", hour, minute)
	}

	notifier := models.Notifier{}
	tx := svc.db.Where("user_id = ?", userID).First(&notifier)
	if err := tx.Error; err != nil {
		return nil, err
	}
	if !notifier.Verified {
		return nil, errors.New("unable to find verified notifier")
	}

	// Also rejects timezones the host has no IANA data for.
	nextRunAt, err := schedule.NextRunUTC(freq, tz, hour, minute, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:     userID,
		NotifierID: notifier.ID,
		Symbol:     symbol,
		Frequency:  freq,
		Timezone:   tz,
		SendHour:   hour,
		SendMinute: minute,
		Enabled:    true,
		NextRunAt:  nextRunAt,
	}
	tx = svc.db.Clauses(clause.Returning{}).Create(sub)
	if err := tx.Error; err != nil {
		return nil, err
	}

	svc.log.Sugar().Infof("Created subscription id:%v (%s %s), first run at %s", sub.ID, symbol, freq, nextRunAt)
	return sub, nil
}

func (svc *subscribe) PauseSubscription(ctx context.Context, userID, subscriptionID uint) error {
	tx := svc.db.Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Where("id = ?", subscriptionID).
		Update("enabled", false)
	if err := tx.Error; err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// ResumeSubscription re-enables a paused subscription. NextRunAt is recomputed
// from now; consuming the stale value would fire a burst of overdue runs.
func (svc *subscribe) ResumeSubscription(ctx context.Context, userID, subscriptionID uint) (*models.Subscription, error) {
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

	nextRunAt, err := schedule.NextRunUTC(sub.Frequency, sub.Timezone, sub.SendHour, sub.SendMinute, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	tx = svc.db.Model(sub).Updates(map[string]any{
		"enabled":     true,
		"next_run_at": nextRunAt,
	})
	if err := tx.Error; err != nil {
		return nil, err
	}

	sub.Enabled = true
	sub.NextRunAt = nextRunAt
	return sub, nil
}
