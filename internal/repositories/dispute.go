package repositories

import (
	"errors"
	"time"

	"blizz/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DisputeRepository interface {
	Create(dispute *models.Dispute) error
	FindByID(id uuid.UUID) (*models.Dispute, error)
	// FindOpenByTransaction returns the open dispute for a transaction,
	// or (nil, nil) when there is none.
	FindOpenByTransaction(transactionID uuid.UUID) (*models.Dispute, error)
	Update(dispute *models.Dispute) error
	ListOpen(limit, offset int) ([]models.Dispute, error)
	ListOverdue(now time.Time) ([]models.Dispute, error)
}

type disputeRepository struct {
	db *gorm.DB
}

func NewDisputeRepository(db *gorm.DB) DisputeRepository {
	return &disputeRepository{db: db}
}

func (r *disputeRepository) Create(dispute *models.Dispute) error {
	return r.db.Create(dispute).Error
}

func (r *disputeRepository) FindByID(id uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	err := r.db.Where("id = ?", id).First(&dispute).Error
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *disputeRepository) FindOpenByTransaction(transactionID uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	err := r.db.Where("transaction_id = ? AND status IN ?", transactionID,
		[]models.DisputeStatus{models.DisputePending, models.DisputeInProgress}).
		First(&dispute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *disputeRepository) Update(dispute *models.Dispute) error {
	return r.db.Save(dispute).Error
}

func (r *disputeRepository) ListOpen(limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.Where("status IN ?",
		[]models.DisputeStatus{models.DisputePending, models.DisputeInProgress}).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&disputes).Error
	return disputes, err
}

func (r *disputeRepository) ListOverdue(now time.Time) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.Where("status IN ? AND deadline < ?",
		[]models.DisputeStatus{models.DisputePending, models.DisputeInProgress}, now).
		Order("deadline ASC").
		Find(&disputes).Error
	return disputes, err
}
