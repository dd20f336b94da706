package repositories

import (
	"errors"

	"blizz/internal/models"

	"gorm.io/gorm"
)

type PaymentInfoRepository interface {
	// FindByUserID returns the seller's payout destination, or (nil, nil)
	// when none is configured yet.
	FindByUserID(userID uint) (*models.SellerPaymentInfo, error)
	Save(info *models.SellerPaymentInfo) error
}

type paymentInfoRepository struct {
	db *gorm.DB
}

func NewPaymentInfoRepository(db *gorm.DB) PaymentInfoRepository {
	return &paymentInfoRepository{db: db}
}

func (r *paymentInfoRepository) FindByUserID(userID uint) (*models.SellerPaymentInfo, error) {
	var info models.SellerPaymentInfo
	err := r.db.Where("user_id = ?", userID).First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *paymentInfoRepository) Save(info *models.SellerPaymentInfo) error {
	return r.db.Save(info).Error
}
