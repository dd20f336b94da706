package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutStatus is the settlement state of a queued payout.
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

// PayoutType distinguishes money owed to the seller from money returned
// to the buyer.
type PayoutType string

const (
	PayoutSeller PayoutType = "seller_payout"
	PayoutRefund PayoutType = "buyer_refund"
)

// PayoutRequest is one unit of money owed to a party, queued for manual
// settlement on the external mobile-money/bank rail. OriginalAmount is the
// pre-commission base and is always stored at creation; Amount is what will
// actually be sent (90% of original for seller payouts, 100% for refunds).
// The unique index on EscrowHoldID prevents duplicate payouts per hold.
type PayoutRequest struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	EscrowHoldID   uuid.UUID    `gorm:"type:uuid;uniqueIndex;not null"`
	Amount         float64      `gorm:"not null"`
	OriginalAmount float64      `gorm:"not null"`
	Currency       string       `gorm:"size:3;default:'XOF'"`
	PayoutType     PayoutType   `gorm:"size:20;not null;default:'seller_payout'"`
	Status         PayoutStatus `gorm:"size:20;not null;default:'pending';index"`

	RecipientPhone    string `gorm:"size:20"`
	RecipientCountry  string `gorm:"size:2"`
	RecipientOperator string `gorm:"size:50"`
	RecipientCardRef  string `gorm:"size:100"`

	GatewayPayoutID string `gorm:"size:100"`
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time

	EscrowHold EscrowHold `gorm:"foreignKey:EscrowHoldID"`
}

func (p *PayoutRequest) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
