package repositories

import (
	"errors"

	"blizz/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShopRepository interface {
	CreateOrder(order *models.Order) error
	FindOrderByID(id uuid.UUID) (*models.Order, error)
	// FindOrderByExternalID returns (nil, nil) when the platform order has
	// no local mirror yet.
	FindOrderByExternalID(externalID string) (*models.Order, error)
	FindOrderByNumber(number string) (*models.Order, error)
	UpdateOrder(order *models.Order) error
	CreateOrderItem(item *models.OrderItem) error

	// UpsertProduct applies a product webhook idempotently, keyed by the
	// platform's external id.
	UpsertProduct(product *models.Product) error
	FindProductByExternalID(externalID string) (*models.Product, error)
	MarkProductDeleted(externalID string) error
}

type shopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) CreateOrder(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *shopRepository) FindOrderByID(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *shopRepository) FindOrderByExternalID(externalID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("external_id = ?", externalID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *shopRepository) FindOrderByNumber(number string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("order_number = ?", number).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *shopRepository) UpdateOrder(order *models.Order) error {
	return r.db.Save(order).Error
}

func (r *shopRepository) CreateOrderItem(item *models.OrderItem) error {
	return r.db.Create(item).Error
}

func (r *shopRepository) UpsertProduct(product *models.Product) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "price", "currency", "inventory", "status", "updated_at"}),
	}).Create(product).Error
}

func (r *shopRepository) FindProductByExternalID(externalID string) (*models.Product, error) {
	var product models.Product
	err := r.db.Where("external_id = ?", externalID).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *shopRepository) MarkProductDeleted(externalID string) error {
	return r.db.Model(&models.Product{}).
		Where("external_id = ?", externalID).
		Update("status", models.ProductDeleted).Error
}
