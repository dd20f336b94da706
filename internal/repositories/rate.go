package repositories

import (
	"errors"

	"blizz/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RateRepository interface {
	// Find returns the persisted rate for a pair, or (nil, nil) if unknown.
	Find(base, target string) (*models.ExchangeRate, error)
	Upsert(base, target string, rate float64) error
}

type rateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) RateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) Find(base, target string) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.Where("base_currency = ? AND target_currency = ?", base, target).First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *rateRepository) Upsert(base, target string, rate float64) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base_currency"}, {Name: "target_currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
	}).Create(&models.ExchangeRate{
		BaseCurrency:   base,
		TargetCurrency: target,
		Rate:           rate,
	}).Error
}
