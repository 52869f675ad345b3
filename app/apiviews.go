package app

import (
	"database/sql"
	"time"

	"github.com/fiffu/tickerdigest/lib/models"
)

type SubscriptionView struct {
	ID         uint         `json:"id"`
	UserID     uint         `json:"user_id"`
	Notifier   NotifierView `json:"notifier"`
	Symbol     string       `json:"symbol"`
	Frequency  string       `json:"frequency"`
	Timezone   string       `json:"timezone"`
	SendHour   int          `json:"send_hour"`
	SendMinute int          `json:"send_minute"`
	Enabled    bool         `json:"enabled"`
	NextRunAt  string       `json:"next_run_at"`
	LastRunAt  *string      `json:"last_run_at"`
	LastStatus string       `json:"last_status"`
	LastError  *string      `json:"last_error"`
}

type NotifierView struct {
	Platform   string `json:"platform"`
	Identifier string `json:"identifier"`
	Verified   bool   `json:"verified"`
}

type DeliveryView struct {
	ID             uint   `json:"id"`
	SubscriptionID uint   `json:"subscription_id"`
	UserID         uint   `json:"user_id"`
	Symbol         string `json:"symbol"`
	Status         string `json:"status"`
	Trigger        string `json:"trigger"`
	Error          string `json:"error,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func (view NotifierView) From(entity *models.Notifier) NotifierView {
	return NotifierView{
		Platform:   entity.Platform,
		Identifier: entity.PlatformIdentifier,
		Verified:   entity.Verified,
	}
}

func (view SubscriptionView) From(entity *models.Subscription) SubscriptionView {
	return SubscriptionView{
		ID:         entity.ID,
		UserID:     entity.UserID,
		Notifier:   NotifierView{}.From(&entity.Notifier),
		Symbol:     entity.Symbol,
		Frequency:  string(entity.Frequency),
		Timezone:   entity.Timezone,
		SendHour:   entity.SendHour,
		SendMinute: entity.SendMinute,
		Enabled:    entity.Enabled,
		NextRunAt:  entity.NextRunAt.UTC().Format(time.RFC3339),
		LastRunAt:  isoformat(entity.LastRunAt),
		LastStatus: string(entity.LastStatus),
		LastError:  nullable(entity.LastError),
	}
}

func (view DeliveryView) From(entity models.Delivery) DeliveryView {
	return DeliveryView{
		ID:             entity.ID,
		SubscriptionID: entity.SubscriptionID,
		UserID:         entity.UserID,
		Symbol:         entity.Symbol,
		Status:         string(entity.Status),
		Trigger:        string(entity.Trigger),
		Error:          entity.Error,
		CreatedAt:      entity.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}

func isoformat(t sql.NullTime) *string {
	if t.Valid {
		s := t.Time.UTC().Format(time.RFC3339)
		return &s
	}
	return nil
}

func nullable(s sql.NullString) *string {
	if s.Valid {
		return &s.String
	}
	return nil
}
