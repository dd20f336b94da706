package repositories

import (
	"blizz/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChargeRepository interface {
	Create(charge *models.PaymentCharge) error
	FindByGatewayRef(ref string) (*models.PaymentCharge, error)
	FindByID(id uuid.UUID) (*models.PaymentCharge, error)
	// FindActiveByTransaction returns the pending or settled charge for a
	// transaction, skipping superseded (cancelled/failed) attempts.
	FindActiveByTransaction(transactionID uuid.UUID) (*models.PaymentCharge, error)
	Update(charge *models.PaymentCharge) error
	// SupersedePending cancels any still-pending charge so a retry can
	// become the single active attempt.
	SupersedePending(transactionID uuid.UUID) error
}

type chargeRepository struct {
	db *gorm.DB
}

func NewChargeRepository(db *gorm.DB) ChargeRepository {
	return &chargeRepository{db: db}
}

func (r *chargeRepository) Create(charge *models.PaymentCharge) error {
	return r.db.Create(charge).Error
}

func (r *chargeRepository) FindByGatewayRef(ref string) (*models.PaymentCharge, error) {
	var charge models.PaymentCharge
	err := r.db.Where("gateway_ref = ?", ref).First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (r *chargeRepository) FindByID(id uuid.UUID) (*models.PaymentCharge, error) {
	var charge models.PaymentCharge
	err := r.db.Where("id = ?", id).First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (r *chargeRepository) FindActiveByTransaction(transactionID uuid.UUID) (*models.PaymentCharge, error) {
	var charge models.PaymentCharge
	err := r.db.Where("transaction_id = ? AND status IN ?", transactionID,
		[]models.ChargeStatus{models.ChargePending, models.ChargeReceived}).
		Order("created_at DESC").
		First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (r *chargeRepository) Update(charge *models.PaymentCharge) error {
	return r.db.Save(charge).Error
}

func (r *chargeRepository) SupersedePending(transactionID uuid.UUID) error {
	return r.db.Model(&models.PaymentCharge{}).
		Where("transaction_id = ? AND status = ?", transactionID, models.ChargePending).
		Update("status", models.ChargeCancelled).Error
}
