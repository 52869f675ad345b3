package models

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

type Subscription struct {
	gorm.Model
	UserID     uint
	NotifierID uint
	Symbol     string `gorm:"index:idx_user_symbol"`

	Frequency  Frequency
	Timezone   string // IANA name, e.g. Europe/Paris
	SendHour   int
	SendMinute int

	Enabled   bool
	NextRunAt time.Time `gorm:"index"`

	LastRunAt  sql.NullTime
	LastStatus RunStatus
	LastError  sql.NullString

	Notifier Notifier
}

type Subscriptions []*Subscription
