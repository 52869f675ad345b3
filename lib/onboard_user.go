package lib

import (
	"context"
	"fmt"
	"time"

	"github.com/fiffu/tickerdigest/config"
	"github.com/fiffu/tickerdigest/lib/models"
	"github.com/fiffu/tickerdigest/senders"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const confirmationValidity = 3 * 24 * time.Hour

type onboardUser struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	senders senders.Registry
}

func (svc *onboardUser) OnboardUser(ctx context.Context, email string, password string) (*models.User, error) {
	user, notifier, confirmation, err := svc.createUserAndNotifier(email, password)
	if err != nil {
		return nil, err
	}
	if err = svc.sendVerificationEmail(ctx, notifier, confirmation.Nonce); err != nil {
		return nil, err
	}
	svc.log.Sugar().Infof("Created user %v (%s), confirmation nonce: %s", user.ID, email, confirmation.Nonce)
	return user, nil
}

func (svc *onboardUser) createUserAndNotifier(email string, password string) (*models.User, *models.Notifier, *models.NotifierConfirmation, error) {
	user := &models.User{
		Username: email,
		Password: password,
	}
	tx := svc.db.
		Clauses(clause.Returning{}).
		Create(user)
	if err := tx.Error; err != nil {
		return nil, nil, nil, err
	}

	notif := &models.Notifier{Platform: "email", PlatformIdentifier: email, UserID: user.ID}
	tx = svc.db.
		Clauses(clause.Returning{}).
		Create(notif)
	if err := tx.Error; err != nil {
		return nil, nil, nil, err
	}

	notifConfirm := &models.NotifierConfirmation{
		NotifierID: notif.ID,
		Nonce:      svc.generateNonce(),
		Expiry:     time.Now().UTC().Add(confirmationValidity),
	}
	tx = svc.db.Create(notifConfirm)
	if err := tx.Error; err != nil {
		return nil, nil, nil, err
	}

	return user, notif, notifConfirm, nil
}

func (svc *onboardUser) sendVerificationEmail(ctx context.Context, notifier *models.Notifier, nonce string) error {
	url := fmt.Sprintf("%s/verify/%s", svc.cfg.ServerDNS, nonce)

	sender := svc.senders[notifier.Platform]
	id, err := sender.SendVerification(ctx, notifier, url)
	if err != nil {
		svc.log.Sugar().Infow("Failed to send verification email", "err", err)
	} else {
		svc.log.Sugar().Infow("Sent verification to "+notifier.PlatformIdentifier, "message_id", id)
	}
	return err
}

func (svc *onboardUser) generateNonce() string {
	u, _ := uuid.NewUUID()
	return u.String()
}
