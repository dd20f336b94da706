package repositories

import (
	"errors"

	"blizz/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayoutRepository interface {
	// GetOrCreate inserts the request unless its escrow hold already has one.
	// Backed by the unique index on escrow_hold_id; on conflict the existing
	// row is loaded back into req.
	GetOrCreate(req *models.PayoutRequest) error
	FindByID(id uuid.UUID) (*models.PayoutRequest, error)
	// FindByHoldID returns the payout for a hold, or (nil, nil) when none exists.
	FindByHoldID(holdID uuid.UUID) (*models.PayoutRequest, error)
	Update(req *models.PayoutRequest) error
	ListByStatus(status models.PayoutStatus, limit, offset int) ([]models.PayoutRequest, error)
}

type payoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) GetOrCreate(req *models.PayoutRequest) error {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "escrow_hold_id"}},
		DoNothing: true,
	}).Create(req)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.db.Where("escrow_hold_id = ?", req.EscrowHoldID).First(req).Error
	}
	return nil
}

func (r *payoutRepository) FindByID(id uuid.UUID) (*models.PayoutRequest, error) {
	var req models.PayoutRequest
	err := r.db.Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *payoutRepository) FindByHoldID(holdID uuid.UUID) (*models.PayoutRequest, error) {
	var req models.PayoutRequest
	err := r.db.Where("escrow_hold_id = ?", holdID).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *payoutRepository) Update(req *models.PayoutRequest) error {
	return r.db.Save(req).Error
}

func (r *payoutRepository) ListByStatus(status models.PayoutStatus, limit, offset int) ([]models.PayoutRequest, error) {
	var reqs []models.PayoutRequest
	err := r.db.Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&reqs).Error
	return reqs, err
}
