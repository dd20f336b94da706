// Package shop runs the dropshipping side: a product catalog and orders
// mirrored from the e-commerce platform, plus local checkout collecting
// payment through the same gateway as the marketplace.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"blizz/internal/models"
	"blizz/internal/repositories"
	"blizz/internal/services/events"
	"blizz/internal/services/gateway"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Webhook topics, matching the platform's X-Shopify-Topic header values.
const (
	TopicOrderCreated   = "orders/create"
	TopicOrderUpdated   = "orders/updated"
	TopicOrderPaid      = "orders/paid"
	TopicOrderCancelled = "orders/cancelled"
	TopicOrderFulfilled = "orders/fulfilled"
	TopicRefundCreated  = "refunds/create"
	TopicProductCreated = "products/create"
	TopicProductUpdated = "products/update"
	TopicProductDeleted = "products/delete"
)

// CheckoutItem is one requested product line at local checkout.
type CheckoutItem struct {
	ProductExternalID string
	Quantity          int
}

// CheckoutInput creates a local order and opens a charge for it.
type CheckoutInput struct {
	Items     []CheckoutItem
	FirstName string
	LastName  string
	Email     string
	Phone     string
	City      string
	Country   string
}

// OrderWebhook is the subset of the platform order payload the mirror
// needs. Everything else in the body is ignored.
type OrderWebhook struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	TotalPrice      float64 `json:"total_price,string"`
	Currency        string  `json:"currency"`
	FinancialStatus string  `json:"financial_status"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
}

// ProductWebhook is the subset of the platform product payload the catalog
// mirror needs.
type ProductWebhook struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price,string"`
	Status    string  `json:"status"`
	Inventory int     `json:"inventory_quantity"`
}

type Service struct {
	repo      repositories.ShopRepository
	charges   repositories.ChargeRepository
	gateway   gateway.Gateway
	publisher events.Publisher
	baseURL   string
}

func NewService(repo repositories.ShopRepository, charges repositories.ChargeRepository, gw gateway.Gateway, publisher events.Publisher, baseURL string) *Service {
	if repo == nil || charges == nil {
		panic("shop: missing repository")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{repo: repo, charges: charges, gateway: gw, publisher: publisher, baseURL: baseURL}
}

// Checkout creates a local order from the catalog and opens a gateway
// charge for its total. Prices come from the catalog, never the request.
func (s *Service) Checkout(ctx context.Context, userID *uint, in CheckoutInput) (*models.Order, *models.PaymentCharge, error) {
	if len(in.Items) == 0 {
		return nil, nil, ErrEmptyOrder
	}

	type line struct {
		product  *models.Product
		quantity int
	}
	var (
		lines []line
		total float64
	)
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, nil, ErrInvalidQuantity
		}
		product, err := s.repo.FindProductByExternalID(item.ProductExternalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrProductNotFound
			}
			return nil, nil, err
		}
		if product.Status != models.ProductActive {
			return nil, nil, ErrProductInactive
		}
		lines = append(lines, line{product: product, quantity: item.Quantity})
		total += product.Price * float64(item.Quantity)
	}

	order := &models.Order{
		OrderNumber:       newOrderNumber(),
		UserID:            userID,
		TotalAmount:       total,
		Currency:          "XOF",
		Status:            models.OrderPending,
		PaymentStatus:     models.OrderPaymentPending,
		CustomerFirstName: in.FirstName,
		CustomerLastName:  in.LastName,
		CustomerEmail:     in.Email,
		CustomerPhone:     in.Phone,
		ShippingCity:      in.City,
		ShippingCountry:   in.Country,
	}
	if err := s.repo.CreateOrder(order); err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}
	for _, l := range lines {
		item := &models.OrderItem{
			OrderID:   order.ID,
			ProductID: l.product.ID,
			Quantity:  l.quantity,
			UnitPrice: l.product.Price,
		}
		if err := s.repo.CreateOrderItem(item); err != nil {
			return nil, nil, err
		}
	}

	charge := &models.PaymentCharge{
		OrderID:             &order.ID,
		GatewayRef:          "SHP-" + uuid.NewString(),
		Amount:              order.TotalAmount,
		Currency:            order.Currency,
		Status:              models.ChargePending,
		CustomerName:        in.FirstName,
		CustomerSurname:     in.LastName,
		CustomerEmail:       in.Email,
		CustomerPhoneNumber: in.Phone,
		CustomerCity:        in.City,
		CustomerCountry:     in.Country,
	}
	session, err := s.gateway.InitiateCharge(ctx, gateway.ChargeRequest{
		ChargeID:        charge.GatewayRef,
		Amount:          charge.Amount,
		Currency:        charge.Currency,
		Description:     fmt.Sprintf("Order %s", order.OrderNumber),
		CustomerName:    in.FirstName,
		CustomerSurname: in.LastName,
		CustomerEmail:   in.Email,
		CustomerPhone:   in.Phone,
		CustomerCity:    in.City,
		CustomerCountry: in.Country,
		ReturnURL:       s.baseURL + "/shop/payments/return",
		NotifyURL:       s.baseURL + "/webhooks/payment",
		CancelURL:       s.baseURL + "/shop/payments/cancel",
	})
	if err != nil {
		return nil, nil, err
	}
	charge.PaymentURL = session.PaymentURL
	charge.PaymentToken = session.PaymentToken
	if err := s.charges.Create(charge); err != nil {
		return nil, nil, err
	}
	return order, charge, nil
}

// ApplyChargeOutcome moves an order on a gateway verdict for its charge.
// Called from the payment webhook path when a charge belongs to an order.
func (s *Service) ApplyChargeOutcome(charge *models.PaymentCharge) error {
	if charge.OrderID == nil {
		return nil
	}
	order, err := s.repo.FindOrderByID(*charge.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	switch charge.Status {
	case models.ChargeReceived:
		if order.PaymentStatus == models.OrderPaymentPaid {
			return nil
		}
		order.PaymentStatus = models.OrderPaymentPaid
		order.Status = models.OrderProcessing
	case models.ChargeFailed:
		order.PaymentStatus = models.OrderPaymentFailed
	default:
		return nil
	}
	return s.repo.UpdateOrder(order)
}

// ApplyOrderWebhook mirrors a platform order event. Idempotent per
// external id: replays settle on the same row.
func (s *Service) ApplyOrderWebhook(topic string, payload OrderWebhook) error {
	order, err := s.repo.FindOrderByExternalID(payload.ID)
	if err != nil {
		return err
	}

	switch topic {
	case TopicOrderCreated, TopicOrderUpdated:
		if order == nil {
			order = &models.Order{
				OrderNumber:   orderNumberFromPlatform(payload),
				ExternalID:    payload.ID,
				Status:        models.OrderPending,
				PaymentStatus: models.OrderPaymentPending,
			}
		}
		order.TotalAmount = payload.TotalPrice
		if payload.Currency != "" {
			order.Currency = payload.Currency
		}
		order.CustomerEmail = payload.Email
		order.CustomerPhone = payload.Phone
		if payload.FinancialStatus == "paid" {
			order.PaymentStatus = models.OrderPaymentPaid
		}
		if order.ID == uuid.Nil {
			return s.repo.CreateOrder(order)
		}
		return s.repo.UpdateOrder(order)

	case TopicOrderPaid:
		if order == nil {
			return nil
		}
		if order.PaymentStatus == models.OrderPaymentPaid {
			return nil
		}
		order.PaymentStatus = models.OrderPaymentPaid
		order.Status = models.OrderProcessing
		return s.repo.UpdateOrder(order)

	case TopicOrderCancelled:
		if order == nil {
			return nil
		}
		order.Status = models.OrderCancelled
		return s.repo.UpdateOrder(order)

	case TopicOrderFulfilled:
		if order == nil {
			return nil
		}
		now := time.Now()
		order.Status = models.OrderDelivered
		order.CompletedAt = &now
		return s.repo.UpdateOrder(order)

	case TopicRefundCreated:
		if order == nil {
			return nil
		}
		order.Status = models.OrderRefunded
		order.PaymentStatus = models.OrderPaymentRefunded
		return s.repo.UpdateOrder(order)
	}

	log.Printf("shop: ignoring webhook topic %q", topic)
	return ErrUnknownWebhook
}

// ApplyProductWebhook mirrors a platform catalog event.
func (s *Service) ApplyProductWebhook(topic string, payload ProductWebhook) error {
	switch topic {
	case TopicProductCreated, TopicProductUpdated:
		status := models.ProductActive
		if payload.Status != "" && payload.Status != "active" {
			status = models.ProductInactive
		}
		return s.repo.UpsertProduct(&models.Product{
			ExternalID: payload.ID,
			Title:      payload.Title,
			Price:      payload.Price,
			Currency:   "XOF",
			Inventory:  payload.Inventory,
			Status:     status,
		})
	case TopicProductDeleted:
		return s.repo.MarkProductDeleted(payload.ID)
	}
	log.Printf("shop: ignoring webhook topic %q", topic)
	return ErrUnknownWebhook
}

func (s *Service) GetOrder(id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrderByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}

func orderNumberFromPlatform(payload OrderWebhook) string {
	if payload.Name != "" {
		return strings.TrimPrefix(payload.Name, "#")
	}
	return "EXT-" + payload.ID
}
