package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EscrowStatus is the state of funds held on behalf of the seller.
type EscrowStatus string

const (
	EscrowInEscrow  EscrowStatus = "in_escrow"
	EscrowReleased  EscrowStatus = "released"
	EscrowRefunded  EscrowStatus = "refunded"
	EscrowCancelled EscrowStatus = "cancelled"
)

// IsTerminal reports whether the hold has been settled one way or the other.
func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowReleased || s == EscrowRefunded || s == EscrowCancelled
}

// EscrowHold is money the platform holds after a charge settles, pending
// completion or dispute resolution. The unique index on ChargeID is the
// idempotence guarantee: concurrent webhook retries for the same settled
// charge can never produce two holds.
type EscrowHold struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ChargeID   uuid.UUID    `gorm:"type:uuid;uniqueIndex;not null"`
	Amount     float64      `gorm:"not null"`
	Currency   string       `gorm:"size:3;default:'XOF'"`
	Status     EscrowStatus `gorm:"size:20;not null;default:'in_escrow';index"`
	CreatedAt  time.Time
	ReleasedAt *time.Time
	RefundedAt *time.Time

	Charge PaymentCharge `gorm:"foreignKey:ChargeID"`
}

func (h *EscrowHold) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
