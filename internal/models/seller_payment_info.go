package models

import (
	"time"

	"gorm.io/gorm"
)

// Payout destination methods
const (
	PaymentMethodMobileMoney = "mobile_money"
	PaymentMethodBankCard    = "bank_card"
)

// Mobile-money operators supported by the payout rail
const (
	OperatorOrange = "orange_money"
	OperatorWave   = "wave"
	OperatorMTN    = "mtn_money"
	OperatorMoov   = "moov_money"
)

// SellerPaymentInfo is where a seller's money goes when a payout settles.
// Card destinations hold a gateway token, never the PAN.
type SellerPaymentInfo struct {
	gorm.Model
	UserID      uint   `gorm:"uniqueIndex;not null"`
	Method      string `gorm:"size:20;not null;default:'mobile_money'"`
	PhoneNumber string `gorm:"size:20"`
	Country     string `gorm:"size:2"`
	Operator    string `gorm:"size:50"`
	CardToken   string `gorm:"size:100"`
	CardBrand   string `gorm:"size:30"`
	IsVerified  bool   `gorm:"default:false"`
	VerifiedAt  *time.Time

	User User `gorm:"foreignKey:UserID"`
}

// HasDestination reports whether the record carries enough routing data for
// its method to actually move money.
func (i *SellerPaymentInfo) HasDestination() bool {
	switch i.Method {
	case PaymentMethodMobileMoney:
		return i.PhoneNumber != "" && i.Operator != ""
	case PaymentMethodBankCard:
		return i.CardToken != ""
	}
	return false
}
