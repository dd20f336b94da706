package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChargeStatus is the state of one collection attempt at the gateway.
type ChargeStatus string

const (
	ChargePending   ChargeStatus = "pending"
	ChargeReceived  ChargeStatus = "payment_received"
	ChargeFailed    ChargeStatus = "failed"
	ChargeRefunded  ChargeStatus = "refunded"
	ChargeCancelled ChargeStatus = "cancelled"
)

// Settled reports whether money was actually collected on this charge.
func (s ChargeStatus) Settled() bool {
	return s == ChargeReceived || s == ChargeRefunded
}

// PaymentCharge is one attempt to collect money from the buyer through the
// external gateway, for either a marketplace Transaction or a shop Order.
// Retries create new rows with fresh gateway refs; the superseded charge is
// cancelled so at most one charge per deal stays active.
type PaymentCharge struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey"`
	TransactionID *uuid.UUID   `gorm:"type:uuid;index"`
	OrderID       *uuid.UUID   `gorm:"type:uuid;index"`
	GatewayRef    string       `gorm:"size:100;uniqueIndex;not null"`
	Amount        float64      `gorm:"not null"`
	Currency      string       `gorm:"size:3;default:'XOF'"`
	// Commission and seller share are fixed at creation, never recomputed.
	PlatformCommission float64
	SellerAmount       float64
	Status             ChargeStatus `gorm:"size:20;not null;default:'pending';index"`
	PaymentURL         string
	PaymentToken       string

	// Customer snapshot, needed later for payout routing.
	CustomerID          string `gorm:"size:100"`
	CustomerName        string `gorm:"size:100"`
	CustomerSurname     string `gorm:"size:100"`
	CustomerPhoneNumber string `gorm:"size:20"`
	CustomerEmail       string
	CustomerCountry     string `gorm:"size:2"`
	CustomerCity        string `gorm:"size:100"`

	SellerPhoneNumber string `gorm:"size:20"`
	SellerCountry     string `gorm:"size:2"`
	SellerOperator    string `gorm:"size:50"`

	CreatedAt         time.Time
	UpdatedAt         time.Time
	PaymentReceivedAt *time.Time
}

func (c *PaymentCharge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
