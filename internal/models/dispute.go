package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DisputeStatus is the arbitration state of a dispute.
type DisputeStatus string

const (
	DisputePending        DisputeStatus = "pending"
	DisputeInProgress     DisputeStatus = "in_progress"
	DisputeResolvedBuyer  DisputeStatus = "resolved_buyer"
	DisputeResolvedSeller DisputeStatus = "resolved_seller"
)

// Open reports whether the dispute still awaits a resolution.
func (s DisputeStatus) Open() bool {
	return s == DisputePending || s == DisputeInProgress
}

// Dispute reason codes, carried over from the marketplace's dispute form.
const (
	DisputeReasonInvalidAccount   = "invalid_account"
	DisputeReasonWrongData        = "wrong_data"
	DisputeReasonNoResponse       = "no_response"
	DisputeReasonAccountRecovered = "account_recovered"
	DisputeReasonFakeScreenshots  = "fake_screenshots"
	DisputeReasonOther            = "other"
)

// ValidDisputeReason reports whether the reason code is one of the known set.
func ValidDisputeReason(reason string) bool {
	switch reason {
	case DisputeReasonInvalidAccount, DisputeReasonWrongData, DisputeReasonNoResponse,
		DisputeReasonAccountRecovered, DisputeReasonFakeScreenshots, DisputeReasonOther:
		return true
	}
	return false
}

// DefaultDisputeDeadline is the window admins have to resolve a dispute.
const DefaultDisputeDeadline = 72 * time.Hour

// Dispute is a formal disagreement raised against a Transaction, arbitrated
// by an admin. It references the money objects but never owns them; resolving
// it triggers their transitions.
type Dispute struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"`
	TransactionID   uuid.UUID     `gorm:"type:uuid;not null;index"`
	OpenedByID      uint          `gorm:"not null"`
	Reason          string        `gorm:"size:50;not null"`
	Description     string        `gorm:"type:text"`
	Evidence        JSON          `gorm:"type:jsonb"`
	Status          DisputeStatus `gorm:"size:20;not null;default:'pending';index"`
	Priority        string        `gorm:"size:10;default:'medium'"`
	AssignedAdminID *uint
	AdminNotes      string  `gorm:"type:text"`
	DisputedAmount  float64 `gorm:"not null"`
	RefundAmount    *float64
	Deadline        time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time

	Transaction   Transaction `gorm:"foreignKey:TransactionID"`
	OpenedBy      User        `gorm:"foreignKey:OpenedByID"`
	AssignedAdmin *User       `gorm:"foreignKey:AssignedAdminID"`
}

func (d *Dispute) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Deadline.IsZero() {
		d.Deadline = time.Now().Add(DefaultDisputeDeadline)
	}
	return nil
}

// IsOverdue reports whether the dispute blew past its resolution deadline.
func (d *Dispute) IsOverdue(now time.Time) bool {
	return d.Status.Open() && now.After(d.Deadline)
}
