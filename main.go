package main

import (
	"net/http"
	"os"
	"time"

	"github.com/fiffu/tickerdigest/app"
	"github.com/fiffu/tickerdigest/config"
	"github.com/fiffu/tickerdigest/lib"
	"github.com/fiffu/tickerdigest/lib/analysis"
	"github.com/fiffu/tickerdigest/lib/runner"
	"github.com/fiffu/tickerdigest/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewSenderRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),
		fx.Provide(analysis.NewClient),
		fx.Provide(runner.NewRepository),
		fx.Provide(runner.NewRunner),
		fx.Provide(runner.NewPoller),
		fx.Provide(lib.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*runner.Poller) {}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}
