package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionStatus is the lifecycle state of a buyer/seller deal.
type TransactionStatus string

const (
	TransactionPendingPayment TransactionStatus = "pending_payment"
	TransactionProcessing     TransactionStatus = "processing"
	TransactionCompleted      TransactionStatus = "completed"
	TransactionDisputed       TransactionStatus = "disputed"
	TransactionCancelled      TransactionStatus = "cancelled"
	TransactionRefunded       TransactionStatus = "refunded"
)

// transactionEdges is the closed transition table. Cancellation is the
// void path for never-paid deals; paid deals reverse through refunded.
var transactionEdges = map[TransactionStatus][]TransactionStatus{
	TransactionPendingPayment: {TransactionProcessing, TransactionCancelled},
	TransactionProcessing:     {TransactionCompleted, TransactionDisputed},
	TransactionDisputed:       {TransactionCompleted, TransactionRefunded},
}

// CanTransition reports whether moving from s to next follows the table.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	for _, t := range transactionEdges[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the deal can no longer move.
func (s TransactionStatus) IsTerminal() bool {
	return len(transactionEdges[s]) == 0
}

// Transaction is one gaming-account deal between a buyer and a seller.
// The amount is in the base currency and immutable once payment settles.
type Transaction struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey"`
	BuyerID           uint              `gorm:"not null;index"`
	SellerID          uint              `gorm:"not null;index"`
	PostID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount            float64           `gorm:"not null"`
	Currency          string            `gorm:"size:3;default:'EUR'"`
	Status            TransactionStatus `gorm:"size:20;not null;default:'pending_payment';index"`
	SecurityPeriodEnd *time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Buyer  User `gorm:"foreignKey:BuyerID"`
	Seller User `gorm:"foreignKey:SellerID"`
	Post   Post `gorm:"foreignKey:PostID"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
