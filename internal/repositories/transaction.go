package repositories

import (
	"time"

	"blizz/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(tx *models.Transaction) error
	FindByID(id uuid.UUID) (*models.Transaction, error)
	Update(tx *models.Transaction) error
	ListByUser(userID uint, limit, offset int) ([]models.Transaction, error)
	// ListAutoCompletable returns processing transactions whose security
	// window elapsed before now.
	ListAutoCompletable(now time.Time, limit int) ([]models.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(tx *models.Transaction) error {
	return r.db.Create(tx).Error
}

func (r *transactionRepository) FindByID(id uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Where("id = ?", id).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) Update(tx *models.Transaction) error {
	return r.db.Save(tx).Error
}

func (r *transactionRepository) ListByUser(userID uint, limit, offset int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) ListAutoCompletable(now time.Time, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("status = ? AND security_period_end IS NOT NULL AND security_period_end < ?",
		models.TransactionProcessing, now).
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
