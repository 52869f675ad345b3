package models

import "gorm.io/gorm"

// Delivery is an append-only audit row, one per executed (non-skipped) run.
type Delivery struct {
	gorm.Model
	SubscriptionID uint `gorm:"index"`
	UserID         uint
	Symbol         string

	Status  RunStatus
	Trigger Trigger
	Error   string
}

type Deliveries []Delivery
