// Package dispute handles buyer/seller disagreements over a deal. Disputes
// reference the money objects but never own them; resolving one drives the
// escrow hold and transaction to their terminal states.
package dispute

import (
	"errors"
	"fmt"
	"time"

	"blizz/internal/models"
	"blizz/internal/repositories"
	"blizz/internal/services/events"
	"blizz/internal/services/payout"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resolution is the admin's verdict on a dispute.
type Resolution string

const (
	ResolveBuyer  Resolution = "buyer"
	ResolveSeller Resolution = "seller"
)

// EscrowSettler is the slice of the escrow service a resolution drives.
type EscrowSettler interface {
	Release(hold *models.EscrowHold, dest payout.Destination) (*models.PayoutRequest, error)
	Refund(hold *models.EscrowHold, amount float64, dest payout.Destination) (*models.PayoutRequest, error)
}

// DestinationResolver looks up a seller's payout routing data.
type DestinationResolver interface {
	Destination(userID uint) (payout.Destination, error)
}

// OpenInput is what a party files when raising a dispute.
type OpenInput struct {
	Reason         string
	Description    string
	Evidence       models.JSON
	DisputedAmount float64
}

// ResolveInput is the admin verdict applied to an open dispute.
type ResolveInput struct {
	Resolution   Resolution
	AdminNotes   string
	RefundAmount float64
}

type Service struct {
	disputes     repositories.DisputeRepository
	transactions repositories.TransactionRepository
	charges      repositories.ChargeRepository
	holds        repositories.EscrowRepository
	escrow       EscrowSettler
	destinations DestinationResolver
	publisher    events.Publisher
}

func NewService(
	disputes repositories.DisputeRepository,
	transactions repositories.TransactionRepository,
	charges repositories.ChargeRepository,
	holds repositories.EscrowRepository,
	settler EscrowSettler,
	destinations DestinationResolver,
	publisher events.Publisher,
) *Service {
	if disputes == nil || transactions == nil || charges == nil || holds == nil || settler == nil {
		panic("dispute: missing repository or settler")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		disputes:     disputes,
		transactions: transactions,
		charges:      charges,
		holds:        holds,
		escrow:       settler,
		destinations: destinations,
		publisher:    publisher,
	}
}

// Open raises a dispute on a processing deal. One open dispute per
// transaction; the deal moves to disputed, freezing auto-completion.
func (s *Service) Open(txID uuid.UUID, userID uint, in OpenInput) (*models.Dispute, error) {
	tx, err := s.transactions.FindByID(txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, err
	}
	if tx.BuyerID != userID && tx.SellerID != userID {
		return nil, ErrNotParty
	}
	if !models.ValidDisputeReason(in.Reason) {
		return nil, ErrInvalidReason
	}
	if in.DisputedAmount <= 0 || in.DisputedAmount > tx.Amount {
		return nil, ErrInvalidAmount
	}
	// Checked before the transition table: a disputed transaction has no
	// disputed edge, which would mask the existing dispute.
	if existing, err := s.disputes.FindOpenByTransaction(tx.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyOpen
	}
	if !tx.Status.CanTransition(models.TransactionDisputed) {
		return nil, fmt.Errorf("%w: transaction is %s", ErrNotDisputable, tx.Status)
	}

	d := &models.Dispute{
		TransactionID:  tx.ID,
		OpenedByID:     userID,
		Reason:         in.Reason,
		Description:    in.Description,
		Evidence:       in.Evidence,
		Status:         models.DisputePending,
		DisputedAmount: in.DisputedAmount,
	}
	if err := s.disputes.Create(d); err != nil {
		return nil, fmt.Errorf("failed to create dispute: %w", err)
	}

	tx.Status = models.TransactionDisputed
	if err := s.transactions.Update(tx); err != nil {
		return nil, err
	}

	s.publisher.Publish(events.DisputeOpened, d.ID.String(), map[string]interface{}{
		"transaction_id": tx.ID.String(),
		"reason":         d.Reason,
		"amount":         d.DisputedAmount,
	})
	return d, nil
}

// Assign puts a dispute under an admin's name and moves it to in_progress.
func (s *Service) Assign(disputeID uuid.UUID, adminID uint, priority string) (*models.Dispute, error) {
	d, err := s.get(disputeID)
	if err != nil {
		return nil, err
	}
	if !d.Status.Open() {
		return nil, ErrAlreadyResolved
	}
	d.Status = models.DisputeInProgress
	d.AssignedAdminID = &adminID
	if priority != "" {
		d.Priority = priority
	}
	if err := s.disputes.Update(d); err != nil {
		return nil, err
	}
	s.publisher.Publish(events.DisputeAssigned, d.ID.String(), map[string]interface{}{
		"admin_id": adminID,
	})
	return d, nil
}

// Resolve applies the admin verdict. Buyer wins: escrow refunds and the
// deal ends refunded. Seller wins: escrow releases and the deal ends
// completed. Resolution straight from pending is allowed; assignment is an
// organizational step, not a gate.
func (s *Service) Resolve(disputeID uuid.UUID, adminID uint, in ResolveInput) (*models.Dispute, error) {
	if in.Resolution != ResolveBuyer && in.Resolution != ResolveSeller {
		return nil, ErrInvalidResolution
	}
	d, err := s.get(disputeID)
	if err != nil {
		return nil, err
	}
	if !d.Status.Open() {
		return nil, ErrAlreadyResolved
	}

	tx, err := s.transactions.FindByID(d.TransactionID)
	if err != nil {
		return nil, err
	}

	// A disputed deal must have settled money behind it. If the charge or
	// hold is missing the data is inconsistent and needs manual repair,
	// not an automated transition.
	charge, err := s.charges.FindActiveByTransaction(tx.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDataInconsistency
		}
		return nil, err
	}
	hold, err := s.holds.FindByChargeID(charge.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDataInconsistency
		}
		return nil, err
	}

	var (
		refund   *float64
		txStatus models.TransactionStatus
	)
	switch in.Resolution {
	case ResolveBuyer:
		amount := in.RefundAmount
		if amount <= 0 || amount > hold.Amount {
			amount = hold.Amount
		}
		if _, err := s.escrow.Refund(hold, amount, payout.Destination{
			Phone:   charge.CustomerPhoneNumber,
			Country: charge.CustomerCountry,
		}); err != nil {
			return nil, err
		}
		refund = &amount
		d.Status = models.DisputeResolvedBuyer
		txStatus = models.TransactionRefunded
	case ResolveSeller:
		dest := s.resolveDestination(tx.SellerID)
		if _, err := s.escrow.Release(hold, dest); err != nil {
			return nil, err
		}
		d.Status = models.DisputeResolvedSeller
		txStatus = models.TransactionCompleted
	}

	now := time.Now()
	d.ResolvedAt = &now
	d.RefundAmount = refund
	if d.AssignedAdminID == nil {
		d.AssignedAdminID = &adminID
	}
	if in.AdminNotes != "" {
		d.AdminNotes = in.AdminNotes
	}
	if err := s.disputes.Update(d); err != nil {
		return nil, err
	}

	if tx.Status.CanTransition(txStatus) {
		tx.Status = txStatus
		if txStatus == models.TransactionCompleted {
			tx.CompletedAt = &now
		}
		if err := s.transactions.Update(tx); err != nil {
			return nil, err
		}
	}

	s.publisher.Publish(events.DisputeResolved, d.ID.String(), map[string]interface{}{
		"resolution":     string(in.Resolution),
		"transaction_id": tx.ID.String(),
	})
	return d, nil
}

func (s *Service) Get(disputeID uuid.UUID, userID uint, isAdmin bool) (*models.Dispute, error) {
	d, err := s.get(disputeID)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return d, nil
	}
	tx, err := s.transactions.FindByID(d.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.BuyerID != userID && tx.SellerID != userID {
		return nil, ErrNotParty
	}
	return d, nil
}

func (s *Service) ListOpen(limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.disputes.ListOpen(limit, offset)
}

func (s *Service) ListOverdue(now time.Time) ([]models.Dispute, error) {
	return s.disputes.ListOverdue(now)
}

func (s *Service) get(disputeID uuid.UUID) (*models.Dispute, error) {
	d, err := s.disputes.FindByID(disputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) resolveDestination(sellerID uint) payout.Destination {
	if s.destinations == nil {
		return payout.Destination{}
	}
	dest, err := s.destinations.Destination(sellerID)
	if err != nil {
		return payout.Destination{}
	}
	return dest
}
