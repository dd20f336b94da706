package repositories

import (
	"blizz/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EscrowRepository interface {
	// GetOrCreate inserts the hold unless one already exists for its charge.
	// The unique index on charge_id makes this safe under concurrent webhook
	// deliveries; the existing row wins and is loaded back into hold.
	GetOrCreate(hold *models.EscrowHold) error
	FindByID(id uuid.UUID) (*models.EscrowHold, error)
	FindByChargeID(chargeID uuid.UUID) (*models.EscrowHold, error)
	Update(hold *models.EscrowHold) error
}

type escrowRepository struct {
	db *gorm.DB
}

func NewEscrowRepository(db *gorm.DB) EscrowRepository {
	return &escrowRepository{db: db}
}

func (r *escrowRepository) GetOrCreate(hold *models.EscrowHold) error {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "charge_id"}},
		DoNothing: true,
	}).Create(hold)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race or re-invoked: load the winner.
		return r.db.Where("charge_id = ?", hold.ChargeID).First(hold).Error
	}
	return nil
}

func (r *escrowRepository) FindByID(id uuid.UUID) (*models.EscrowHold, error) {
	var hold models.EscrowHold
	err := r.db.Where("id = ?", id).First(&hold).Error
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

func (r *escrowRepository) FindByChargeID(chargeID uuid.UUID) (*models.EscrowHold, error) {
	var hold models.EscrowHold
	err := r.db.Where("charge_id = ?", chargeID).First(&hold).Error
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

func (r *escrowRepository) Update(hold *models.EscrowHold) error {
	return r.db.Save(hold).Error
}
