package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a gaming-account listing put up for sale by a seller.
// Exactly one of the sale flags is expected to be set at a time:
// on sale, locked in a transaction, or sold.
type Post struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	SellerID        uint      `gorm:"not null;index"`
	Title           string    `gorm:"not null"`
	Description     string    `gorm:"type:text"`
	GameType        string    `gorm:"size:50;default:'other'"`
	Price           float64   `gorm:"not null"`
	Currency        string    `gorm:"size:3;default:'EUR'"`
	IsOnSale        bool      `gorm:"default:true"`
	IsInTransaction bool      `gorm:"default:false"`
	IsSold          bool      `gorm:"default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Seller User `gorm:"foreignKey:SellerID"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MarkInTransaction locks the listing while a deal is in flight.
func (p *Post) MarkInTransaction() {
	p.IsOnSale = false
	p.IsInTransaction = true
	p.IsSold = false
}

// MarkSold takes the listing off the market permanently.
func (p *Post) MarkSold() {
	p.IsOnSale = false
	p.IsInTransaction = false
	p.IsSold = true
}

// MarkOnSale puts the listing back on the market after a void or refund.
func (p *Post) MarkOnSale() {
	p.IsOnSale = true
	p.IsInTransaction = false
	p.IsSold = false
}
