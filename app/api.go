package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fiffu/tickerdigest/config"
	"github.com/fiffu/tickerdigest/lib"
	"github.com/fiffu/tickerdigest/lib/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *lib.Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("tickerdigest", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/", ctrl.onboardUser)
			r.Route("/{user_id}/subscriptions", func(r chi.Router) {
				r.Post("/", ctrl.createSubscription)
				r.Get("/", ctrl.listSubscriptions)
				r.Post("/{subscription_id}/pause", ctrl.pauseSubscription)
				r.Post("/{subscription_id}/resume", ctrl.resumeSubscription)
				r.Post("/{subscription_id}/run", ctrl.runSubscription)
				r.Get("/{subscription_id}/deliveries", ctrl.listDeliveries)
			})
		})
	})
	r.Get("/verify/{nonce}", ctrl.verifyNotifier)

	return r
}

type controller struct {
	log *zap.Logger
	svc *lib.Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Error("Request failed", "error", err)
		return
	} else {
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

func (ctrl *controller) status(err error) int {
	if errors.Is(err, lib.ErrSubscriptionNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (ctrl *controller) onboardUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := r.FormValue("email")
	password := r.FormValue("password")

	if email == "" {
		ctrl.reject(w, 400, errors.New("Email is required"))
		return
	}
	if password == "" {
		ctrl.reject(w, 400, errors.New("Password is required"))
		return
	}

	user, err := ctrl.svc.OnboardUser(ctx, email, password)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusAccepted, map[string]any{"user_id": user.ID})
}

func (ctrl *controller) createSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	symbol := r.FormValue("symbol")
	frequency := models.Frequency(r.FormValue("frequency"))
	timezone := r.FormValue("timezone")
	hour := parseInt(r.FormValue("send_hour"))
	minute := parseInt(r.FormValue("send_minute"))

	sub, err := ctrl.svc.CreateSubscription(ctx, parseID(userID), symbol, frequency, timezone, int(hour), int(minute))
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, SubscriptionView{}.From(sub))
}

func (ctrl *controller) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")

	subs, err := ctrl.svc.ListSubscriptions(ctx, parseID(userID))
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[*models.Subscription, SubscriptionView](subs))
}

func (ctrl *controller) pauseSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	subID := chi.URLParam(r, "subscription_id")

	if err := ctrl.svc.PauseSubscription(ctx, parseID(userID), parseID(subID)); err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"enabled": false})
}

func (ctrl *controller) resumeSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	subID := chi.URLParam(r, "subscription_id")

	sub, err := ctrl.svc.ResumeSubscription(ctx, parseID(userID), parseID(subID))
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, SubscriptionView{}.From(sub))
}

func (ctrl *controller) runSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	subID := chi.URLParam(r, "subscription_id")

	outcome, err := ctrl.svc.RunSubscription(ctx, parseID(userID), parseID(subID), models.TriggerManual)
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, outcome)
}

func (ctrl *controller) listDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	subID := chi.URLParam(r, "subscription_id")

	deliveries, err := ctrl.svc.ListDeliveries(ctx, parseID(userID), parseID(subID))
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.Delivery, DeliveryView](deliveries))
}

func (ctrl *controller) verifyNotifier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nonce := chi.URLParam(r, "nonce")

	ok, err := ctrl.svc.VerifyNotifier(ctx, nonce)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"verified": ok})
}

func parseID(s string) uint {
	u, _ := strconv.ParseUint(s, 10, 64)
	return uint(u)
}

func parseInt(s string) int64 {
	i, _ := strconv.ParseInt(s, 10, 64)
	return i
}
