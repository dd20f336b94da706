package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus is the fulfillment state of a shop order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// Order payment states mirror the webhook vocabulary of the shop platform.
const (
	OrderPaymentPending  = "pending"
	OrderPaymentPaid     = "paid"
	OrderPaymentFailed   = "failed"
	OrderPaymentRefunded = "refunded"
)

// Order is a shop (dropshipping) order, either created locally at checkout
// or mirrored from the e-commerce platform through webhooks. ExternalID is
// the platform's id and makes webhook application idempotent.
type Order struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey"`
	OrderNumber   string      `gorm:"size:50;uniqueIndex;not null"`
	ExternalID    string      `gorm:"size:100;index"`
	UserID        *uint       `gorm:"index"`
	TotalAmount   float64     `gorm:"not null"`
	Currency      string      `gorm:"size:3;default:'XOF'"`
	Status        OrderStatus `gorm:"size:20;not null;default:'pending'"`
	PaymentStatus string      `gorm:"size:20;not null;default:'pending'"`

	CustomerFirstName string `gorm:"size:100"`
	CustomerLastName  string `gorm:"size:100"`
	CustomerEmail     string
	CustomerPhone     string `gorm:"size:20"`
	ShippingCity      string `gorm:"size:100"`
	ShippingCountry   string `gorm:"size:2"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is one product line on an order.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity  int       `gorm:"not null;default:1"`
	UnitPrice float64   `gorm:"not null"`
	CreatedAt time.Time
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ProductStatus is the catalog state of a shop product.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
	ProductDeleted  ProductStatus = "deleted"
)

// Product is a shop catalog entry mirrored from the e-commerce platform.
type Product struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	ExternalID string        `gorm:"size:100;uniqueIndex;not null"`
	Title      string        `gorm:"not null"`
	Price      float64       `gorm:"not null"`
	Currency   string        `gorm:"size:3;default:'XOF'"`
	Inventory  int           `gorm:"default:0"`
	Status     ProductStatus `gorm:"size:20;not null;default:'active'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
