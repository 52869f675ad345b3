package senders

import (
	"context"
	"net/http"

	"github.com/fiffu/tickerdigest/config"
	"github.com/fiffu/tickerdigest/lib/analysis"
	"github.com/fiffu/tickerdigest/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Sender interface {
	SendDigest(ctx context.Context, notifier *models.Notifier, sub *models.Subscription, report *analysis.Report) (string, error)
	SendVerification(ctx context.Context, notifier *models.Notifier, verifyURL string) (string, error)
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return map[string]Sender{
		"email": &mailgunSender{base},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
