// Package escrow is the ledger of funds held by the platform between
// payment confirmation and release or refund.
package escrow

import (
	"fmt"
	"log"
	"time"

	"blizz/internal/models"
	"blizz/internal/repositories"
	"blizz/internal/services/events"
	"blizz/internal/services/payout"

	"github.com/google/uuid"
)

// PayoutEnqueuer is the slice of the payout service the ledger needs.
type PayoutEnqueuer interface {
	Enqueue(hold *models.EscrowHold, payoutType models.PayoutType, originalAmount float64, dest payout.Destination) (*models.PayoutRequest, error)
	ExistingForHold(holdID uuid.UUID) (*models.PayoutRequest, error)
}

type Service struct {
	repo      repositories.EscrowRepository
	payouts   PayoutEnqueuer
	publisher events.Publisher
}

func NewService(repo repositories.EscrowRepository, payouts PayoutEnqueuer, publisher events.Publisher) *Service {
	if repo == nil || payouts == nil {
		panic("escrow: repo and payouts are required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{repo: repo, payouts: payouts, publisher: publisher}
}

// Open places a settled charge's money in escrow. Idempotent per charge:
// the unique index on charge_id guarantees at most one hold even under
// concurrent webhook retries.
func (s *Service) Open(charge *models.PaymentCharge) (*models.EscrowHold, error) {
	if !charge.Status.Settled() {
		return nil, fmt.Errorf("%w: charge %s is %s", ErrChargeNotSettled, charge.GatewayRef, charge.Status)
	}

	hold := &models.EscrowHold{
		ChargeID: charge.ID,
		Amount:   charge.Amount,
		Currency: charge.Currency,
		Status:   models.EscrowInEscrow,
	}
	if err := s.repo.GetOrCreate(hold); err != nil {
		return nil, fmt.Errorf("failed to open escrow: %w", err)
	}

	s.publisher.Publish(events.EscrowOpened, hold.ID.String(), map[string]interface{}{
		"charge_ref": charge.GatewayRef,
		"amount":     hold.Amount,
		"currency":   hold.Currency,
	})
	return hold, nil
}

// Release pays the hold out to the seller. Terminal and mutually exclusive
// with Refund; re-invoking on a released hold returns the existing payout
// instead of creating a duplicate.
func (s *Service) Release(hold *models.EscrowHold, dest payout.Destination) (*models.PayoutRequest, error) {
	return s.settle(hold, models.EscrowReleased, models.PayoutSeller, hold.Amount, dest)
}

// Refund returns money to the buyer, optionally partially. Same terminal
// and idempotence rules as Release.
func (s *Service) Refund(hold *models.EscrowHold, amount float64, dest payout.Destination) (*models.PayoutRequest, error) {
	if amount <= 0 || amount > hold.Amount {
		amount = hold.Amount
	}
	return s.settle(hold, models.EscrowRefunded, models.PayoutRefund, amount, dest)
}

// Cancel voids a hold whose deal was administratively cancelled. No payout
// is created.
func (s *Service) Cancel(hold *models.EscrowHold) error {
	if hold.Status.IsTerminal() {
		if hold.Status == models.EscrowCancelled {
			return nil
		}
		return fmt.Errorf("cannot cancel %s hold %s", hold.Status, hold.ID)
	}
	hold.Status = models.EscrowCancelled
	return s.repo.Update(hold)
}

func (s *Service) settle(hold *models.EscrowHold, to models.EscrowStatus, payoutType models.PayoutType, amount float64, dest payout.Destination) (*models.PayoutRequest, error) {
	if hold.Status == models.EscrowCancelled {
		return nil, fmt.Errorf("%w: %s", ErrHoldCancelled, hold.ID)
	}

	if hold.Status.IsTerminal() {
		// Released and refunded are mutually exclusive; a repeat call for
		// the state the hold is already in is a no-op returning the
		// original payout, anything else is refused.
		if hold.Status != to {
			return nil, fmt.Errorf("hold %s already %s, cannot move to %s", hold.ID, hold.Status, to)
		}
		existing, err := s.payouts.ExistingForHold(hold.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		log.Printf("escrow: terminal hold %s has no payout, enqueueing", hold.ID)
		return s.payouts.Enqueue(hold, payoutType, amount, dest)
	}

	now := time.Now()
	hold.Status = to
	switch to {
	case models.EscrowReleased:
		hold.ReleasedAt = &now
	case models.EscrowRefunded:
		hold.RefundedAt = &now
	}
	if err := s.repo.Update(hold); err != nil {
		return nil, fmt.Errorf("failed to settle hold: %w", err)
	}

	req, err := s.payouts.Enqueue(hold, payoutType, amount, dest)
	if err != nil {
		return nil, err
	}

	event := events.EscrowReleased
	if to == models.EscrowRefunded {
		event = events.EscrowRefunded
	}
	s.publisher.Publish(event, hold.ID.String(), map[string]interface{}{
		"payout_id": req.ID.String(),
		"amount":    req.Amount,
	})
	return req, nil
}
