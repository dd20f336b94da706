// Package payout manages the queue of money owed to sellers and buyers.
// Settlement is deliberately manual: an admin exports pending requests,
// executes them on the external rail, then records the outcome here.
package payout

import (
	"fmt"
	"time"

	"blizz/internal/models"
	"blizz/internal/repositories"
	"blizz/internal/services/events"
	"blizz/internal/utils"

	"github.com/google/uuid"
)

// CommissionRate is the platform's cut on seller payouts.
const CommissionRate = 0.10

// SellerAmount is the single place the 90/10 split is computed.
func SellerAmount(originalAmount float64) float64 {
	return utils.Round2(originalAmount * (1 - CommissionRate))
}

// Destination is the routing snapshot frozen onto a payout at enqueue time.
type Destination struct {
	Phone    string
	Country  string
	Operator string
	CardRef  string
}

type Service struct {
	repo      repositories.PayoutRepository
	publisher events.Publisher
}

func NewService(repo repositories.PayoutRepository, publisher events.Publisher) *Service {
	if repo == nil {
		panic("payout: repo is required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher}
}

// Enqueue records money owed against an escrow hold. Idempotent per hold:
// re-invocation returns the existing request instead of creating a second
// one. OriginalAmount is always stored; the sent amount is derived from it
// here and nowhere else.
func (s *Service) Enqueue(hold *models.EscrowHold, payoutType models.PayoutType, originalAmount float64, dest Destination) (*models.PayoutRequest, error) {
	if originalAmount <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, originalAmount)
	}

	amount := originalAmount
	if payoutType == models.PayoutSeller {
		amount = SellerAmount(originalAmount)
	}

	req := &models.PayoutRequest{
		EscrowHoldID:      hold.ID,
		Amount:            amount,
		OriginalAmount:    originalAmount,
		Currency:          hold.Currency,
		PayoutType:        payoutType,
		Status:            models.PayoutPending,
		RecipientPhone:    dest.Phone,
		RecipientCountry:  dest.Country,
		RecipientOperator: dest.Operator,
		RecipientCardRef:  dest.CardRef,
	}
	if err := s.repo.GetOrCreate(req); err != nil {
		return nil, fmt.Errorf("failed to enqueue payout: %w", err)
	}

	s.publisher.Publish(events.PayoutQueued, req.ID.String(), map[string]interface{}{
		"payout_type": string(req.PayoutType),
		"amount":      req.Amount,
		"currency":    req.Currency,
	})
	return req, nil
}

// ExistingForHold returns the payout already created for a hold, if any.
func (s *Service) ExistingForHold(holdID uuid.UUID) (*models.PayoutRequest, error) {
	return s.repo.FindByHoldID(holdID)
}

// MarkProcessing flags a pending request as being executed on the rail.
func (s *Service) MarkProcessing(id uuid.UUID, gatewayPayoutID string) (*models.PayoutRequest, error) {
	return s.transition(id, models.PayoutProcessing, func(req *models.PayoutRequest) {
		req.GatewayPayoutID = gatewayPayoutID
	})
}

// MarkCompleted records a settled payout. completed_at is set here only.
func (s *Service) MarkCompleted(id uuid.UUID) (*models.PayoutRequest, error) {
	req, err := s.transition(id, models.PayoutCompleted, func(req *models.PayoutRequest) {
		now := time.Now()
		req.CompletedAt = &now
		req.FailureReason = ""
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(events.PayoutSettled, req.ID.String(), nil)
	return req, nil
}

// MarkFailed records a failed settlement attempt; the request can be retried
// by marking it processing again.
func (s *Service) MarkFailed(id uuid.UUID, reason string) (*models.PayoutRequest, error) {
	req, err := s.transition(id, models.PayoutFailed, func(req *models.PayoutRequest) {
		req.CompletedAt = nil
		req.FailureReason = reason
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(events.PayoutFailed, req.ID.String(), map[string]interface{}{"reason": reason})
	return req, nil
}

// ListPending returns the queue an admin works through.
func (s *Service) ListPending(limit, offset int) ([]models.PayoutRequest, error) {
	return s.repo.ListByStatus(models.PayoutPending, limit, offset)
}

var payoutEdges = map[models.PayoutStatus][]models.PayoutStatus{
	models.PayoutPending:    {models.PayoutProcessing},
	models.PayoutProcessing: {models.PayoutCompleted, models.PayoutFailed},
	models.PayoutFailed:     {models.PayoutProcessing},
}

func canTransition(from, to models.PayoutStatus) bool {
	for _, t := range payoutEdges[from] {
		if t == to {
			return true
		}
	}
	return false
}

func (s *Service) transition(id uuid.UUID, to models.PayoutStatus, mutate func(*models.PayoutRequest)) (*models.PayoutRequest, error) {
	req, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrPayoutNotFound
	}
	if !canTransition(req.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.Status, to)
	}
	req.Status = to
	if mutate != nil {
		mutate(req)
	}
	if err := s.repo.Update(req); err != nil {
		return nil, fmt.Errorf("failed to update payout: %w", err)
	}
	return req, nil
}
