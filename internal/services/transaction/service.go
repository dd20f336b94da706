// Package transaction drives a deal through its lifecycle: purchase intent,
// payment collection, the escrow window, and completion or cancellation.
// Every status change goes through the transition table on the model.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"blizz/internal/models"
	"blizz/internal/repositories"
	"blizz/internal/services/currency"
	"blizz/internal/services/events"
	"blizz/internal/services/gateway"
	"blizz/internal/services/payout"
	"blizz/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SecurityWindow is how long the buyer has after payment to inspect the
// account before the deal auto-completes.
const SecurityWindow = 72 * time.Hour

// EscrowLedger is the slice of the escrow service this package drives.
type EscrowLedger interface {
	Open(charge *models.PaymentCharge) (*models.EscrowHold, error)
	Release(hold *models.EscrowHold, dest payout.Destination) (*models.PayoutRequest, error)
	Cancel(hold *models.EscrowHold) error
}

// DestinationResolver looks up where a seller's payout money should go.
type DestinationResolver interface {
	Destination(userID uint) (payout.Destination, error)
}

// CustomerInfo is the buyer snapshot frozen onto a charge; the gateway
// requires it and payout routing reads it back later.
type CustomerInfo struct {
	Name        string
	Surname     string
	PhoneNumber string
	Email       string
	Country     string
	City        string
}

type Service struct {
	transactions repositories.TransactionRepository
	charges      repositories.ChargeRepository
	posts        repositories.PostRepository
	holds        repositories.EscrowRepository
	escrow       EscrowLedger
	gateway      gateway.Gateway
	currency     *currency.Service
	destinations DestinationResolver
	publisher    events.Publisher
	baseURL      string
}

func NewService(
	transactions repositories.TransactionRepository,
	charges repositories.ChargeRepository,
	posts repositories.PostRepository,
	holds repositories.EscrowRepository,
	escrowLedger EscrowLedger,
	gw gateway.Gateway,
	converter *currency.Service,
	destinations DestinationResolver,
	publisher events.Publisher,
	baseURL string,
) *Service {
	if transactions == nil || charges == nil || posts == nil || holds == nil || escrowLedger == nil {
		panic("transaction: missing repository or ledger")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		transactions: transactions,
		charges:      charges,
		posts:        posts,
		holds:        holds,
		escrow:       escrowLedger,
		gateway:      gw,
		currency:     converter,
		destinations: destinations,
		publisher:    publisher,
		baseURL:      baseURL,
	}
}

// CreatePurchase opens a deal on a listing. The amount is frozen from the
// listing price at this moment and never changes afterwards.
func (s *Service) CreatePurchase(buyerID uint, postID uuid.UUID) (*models.Transaction, error) {
	post, err := s.posts.FindByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotAvailable
		}
		return nil, err
	}
	if !post.IsOnSale || post.IsSold || post.IsInTransaction {
		return nil, ErrPostNotAvailable
	}
	if post.SellerID == buyerID {
		return nil, ErrSelfPurchase
	}

	tx := &models.Transaction{
		BuyerID:  buyerID,
		SellerID: post.SellerID,
		PostID:   post.ID,
		Amount:   post.Price,
		Currency: post.Currency,
		Status:   models.TransactionPendingPayment,
	}
	if err := s.transactions.Create(tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// InitiatePayment opens a charge at the gateway for a pending deal. If a
// previous attempt is still pending it is superseded first, so at most one
// charge per transaction stays active. Settled charges are never replaced.
func (s *Service) InitiatePayment(ctx context.Context, txID uuid.UUID, buyerID uint, info CustomerInfo) (*models.PaymentCharge, error) {
	tx, err := s.get(txID)
	if err != nil {
		return nil, err
	}
	if tx.BuyerID != buyerID {
		return nil, ErrNotBuyer
	}
	if tx.Status != models.TransactionPendingPayment {
		return nil, fmt.Errorf("%w: cannot pay a %s transaction", ErrInvalidTransition, tx.Status)
	}

	if existing, err := s.charges.FindActiveByTransaction(tx.ID); err == nil {
		if existing.Status.Settled() {
			return nil, ErrChargeSettled
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := s.charges.SupersedePending(tx.ID); err != nil {
		return nil, fmt.Errorf("failed to supersede pending charge: %w", err)
	}

	settlement := currency.ForCountry(info.Country)
	chargeAmount := s.currency.Convert(ctx, tx.Amount, tx.Currency, settlement)
	if err := currency.ValidateChargeAmount(chargeAmount, settlement); err != nil {
		return nil, err
	}

	charge := &models.PaymentCharge{
		TransactionID:       &tx.ID,
		GatewayRef:          newGatewayRef(),
		Amount:              chargeAmount,
		Currency:            settlement,
		PlatformCommission:  utils.Round2(chargeAmount * payout.CommissionRate),
		SellerAmount:        payout.SellerAmount(chargeAmount),
		Status:              models.ChargePending,
		CustomerID:          fmt.Sprintf("%d", buyerID),
		CustomerName:        info.Name,
		CustomerSurname:     info.Surname,
		CustomerPhoneNumber: info.PhoneNumber,
		CustomerEmail:       info.Email,
		CustomerCountry:     info.Country,
		CustomerCity:        info.City,
	}

	session, err := s.gateway.InitiateCharge(ctx, gateway.ChargeRequest{
		ChargeID:        charge.GatewayRef,
		Amount:          charge.Amount,
		Currency:        charge.Currency,
		Description:     fmt.Sprintf("Purchase %s", tx.PostID),
		CustomerID:      charge.CustomerID,
		CustomerName:    info.Name,
		CustomerSurname: info.Surname,
		CustomerEmail:   info.Email,
		CustomerPhone:   info.PhoneNumber,
		CustomerCity:    info.City,
		CustomerCountry: info.Country,
		ReturnURL:       s.baseURL + "/payments/return",
		NotifyURL:       s.baseURL + "/webhooks/payment",
		CancelURL:       s.baseURL + "/payments/cancel",
	})
	if err != nil {
		return nil, err
	}
	charge.PaymentURL = session.PaymentURL
	charge.PaymentToken = session.PaymentToken

	if err := s.charges.Create(charge); err != nil {
		return nil, fmt.Errorf("failed to create charge: %w", err)
	}
	return charge, nil
}

// ApplyChargeVerdict re-verifies a charge at the gateway and applies the
// outcome. Notification bodies are never trusted; only the verification
// call decides. Safe to replay: a settled charge is left alone.
func (s *Service) ApplyChargeVerdict(ctx context.Context, gatewayRef string) (*models.PaymentCharge, error) {
	charge, err := s.charges.FindByGatewayRef(gatewayRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveCharge
		}
		return nil, err
	}
	if charge.Status != models.ChargePending {
		// A received charge may have settled only halfway: the charge row
		// commits first, so a crash before the transaction update leaves
		// the deal stuck in pending_payment. Replays repair that.
		if charge.Status == models.ChargeReceived {
			return charge, s.applySettlement(charge)
		}
		return charge, nil
	}

	verdict, err := s.gateway.VerifyCharge(ctx, gatewayRef)
	if err != nil {
		return nil, err
	}

	switch verdict {
	case gateway.StatusAccepted:
		return charge, s.settleCharge(charge)
	case gateway.StatusRefused:
		return charge, s.failCharge(charge)
	default:
		// Pending stays pending; another notification will come.
		return charge, nil
	}
}

func (s *Service) settleCharge(charge *models.PaymentCharge) error {
	now := time.Now()
	charge.Status = models.ChargeReceived
	charge.PaymentReceivedAt = &now
	if err := s.charges.Update(charge); err != nil {
		return fmt.Errorf("failed to settle charge: %w", err)
	}
	return s.applySettlement(charge)
}

// applySettlement drives everything downstream of a received charge. Each
// step is idempotent, so replaying it repairs a settlement that only
// partially landed.
func (s *Service) applySettlement(charge *models.PaymentCharge) error {
	if _, err := s.escrow.Open(charge); err != nil {
		return err
	}

	if charge.TransactionID == nil {
		return nil
	}
	tx, err := s.get(*charge.TransactionID)
	if err != nil {
		return err
	}
	switch tx.Status {
	case models.TransactionProcessing, models.TransactionCompleted,
		models.TransactionDisputed, models.TransactionRefunded:
		// Settlement already propagated this far.
		return nil
	}
	if !tx.Status.CanTransition(models.TransactionProcessing) {
		return fmt.Errorf("%w: %s -> processing", ErrInvalidTransition, tx.Status)
	}
	base := time.Now()
	if charge.PaymentReceivedAt != nil {
		base = *charge.PaymentReceivedAt
	}
	end := base.Add(SecurityWindow)
	tx.Status = models.TransactionProcessing
	tx.SecurityPeriodEnd = &end
	if err := s.transactions.Update(tx); err != nil {
		return err
	}

	if post, err := s.posts.FindByID(tx.PostID); err == nil {
		post.MarkInTransaction()
		if err := s.posts.Update(post); err != nil {
			log.Printf("transaction: failed to lock post %s: %v", post.ID, err)
		}
	}

	s.publisher.Publish(events.TransactionProcessing, tx.ID.String(), map[string]interface{}{
		"charge_ref":          charge.GatewayRef,
		"amount":              tx.Amount,
		"security_period_end": end,
	})
	return nil
}

func (s *Service) failCharge(charge *models.PaymentCharge) error {
	charge.Status = models.ChargeFailed
	if err := s.charges.Update(charge); err != nil {
		return err
	}
	s.publisher.Publish(events.ChargeFailed, charge.GatewayRef, map[string]interface{}{
		"amount":   charge.Amount,
		"currency": charge.Currency,
	})

	if charge.TransactionID == nil {
		return nil
	}
	tx, err := s.get(*charge.TransactionID)
	if err != nil {
		return err
	}
	// No money moved, so this is a void, not a refund.
	if tx.Status == models.TransactionPendingPayment {
		return s.void(tx)
	}
	return nil
}

// ConfirmReception is the buyer acknowledging the account works. It closes
// the deal, releases escrow to the seller, and marks the listing sold.
func (s *Service) ConfirmReception(txID uuid.UUID, userID uint) (*models.Transaction, error) {
	tx, err := s.get(txID)
	if err != nil {
		return nil, err
	}
	if tx.BuyerID != userID {
		return nil, ErrNotBuyer
	}
	if err := s.complete(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// AutoComplete closes processing deals whose security window elapsed.
// Returns how many deals were completed.
func (s *Service) AutoComplete(now time.Time, limit int) (int, error) {
	txs, err := s.transactions.ListAutoCompletable(now, limit)
	if err != nil {
		return 0, err
	}
	var done int
	for i := range txs {
		if err := s.complete(&txs[i]); err != nil {
			log.Printf("transaction: auto-complete %s failed: %v", txs[i].ID, err)
			continue
		}
		done++
	}
	return done, nil
}

func (s *Service) complete(tx *models.Transaction) error {
	if tx.Status == models.TransactionCompleted {
		return nil
	}
	// Only arbitration walks the disputed -> completed edge; a buyer
	// confirm or the auto-complete job must not release escrow while a
	// dispute is open.
	if tx.Status != models.TransactionProcessing {
		return fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, tx.Status)
	}

	charge, err := s.charges.FindActiveByTransaction(tx.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoActiveCharge, err)
	}
	hold, err := s.holds.FindByChargeID(charge.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Webhook delivery can lag; open the hold from the settled charge
		// before releasing it.
		hold, err = s.escrow.Open(charge)
	}
	if err != nil {
		return err
	}

	dest, err := s.resolveDestination(tx.SellerID)
	if err != nil {
		return err
	}
	if _, err := s.escrow.Release(hold, dest); err != nil {
		return err
	}

	now := time.Now()
	tx.Status = models.TransactionCompleted
	tx.CompletedAt = &now
	if err := s.transactions.Update(tx); err != nil {
		return err
	}

	if post, err := s.posts.FindByID(tx.PostID); err == nil {
		post.MarkSold()
		if err := s.posts.Update(post); err != nil {
			log.Printf("transaction: failed to mark post %s sold: %v", post.ID, err)
		}
	}

	s.publisher.Publish(events.TransactionCompleted, tx.ID.String(), map[string]interface{}{
		"seller_id": tx.SellerID,
		"amount":    tx.Amount,
	})
	return nil
}

// Cancel voids a deal money never settled on. Paid deals cannot be
// cancelled here; they go through the dispute refund path.
func (s *Service) Cancel(txID uuid.UUID) (*models.Transaction, error) {
	tx, err := s.get(txID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.TransactionCancelled {
		return tx, nil
	}
	if !tx.Status.CanTransition(models.TransactionCancelled) {
		return nil, fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, tx.Status)
	}
	if err := s.void(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Service) void(tx *models.Transaction) error {
	if charge, err := s.charges.FindActiveByTransaction(tx.ID); err == nil {
		if charge.Status.Settled() {
			return fmt.Errorf("%w: money settled on transaction %s", ErrChargeSettled, tx.ID)
		}
		if charge.Status == models.ChargePending {
			charge.Status = models.ChargeCancelled
			if err := s.charges.Update(charge); err != nil {
				return err
			}
		}
		if hold, err := s.holds.FindByChargeID(charge.ID); err == nil {
			if err := s.escrow.Cancel(hold); err != nil {
				return err
			}
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	tx.Status = models.TransactionCancelled
	if err := s.transactions.Update(tx); err != nil {
		return err
	}

	if post, err := s.posts.FindByID(tx.PostID); err == nil && !post.IsSold {
		post.MarkOnSale()
		if err := s.posts.Update(post); err != nil {
			log.Printf("transaction: failed to relist post %s: %v", post.ID, err)
		}
	}

	s.publisher.Publish(events.TransactionCancelled, tx.ID.String(), nil)
	return nil
}

// Get returns a transaction visible to one of its parties or an admin.
func (s *Service) Get(txID uuid.UUID, userID uint, isAdmin bool) (*models.Transaction, error) {
	tx, err := s.get(txID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && tx.BuyerID != userID && tx.SellerID != userID {
		return nil, ErrNotParty
	}
	return tx, nil
}

func (s *Service) ListForUser(userID uint, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.transactions.ListByUser(userID, limit, offset)
}

func (s *Service) get(txID uuid.UUID) (*models.Transaction, error) {
	tx, err := s.transactions.FindByID(txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

func (s *Service) resolveDestination(sellerID uint) (payout.Destination, error) {
	if s.destinations == nil {
		return payout.Destination{}, nil
	}
	dest, err := s.destinations.Destination(sellerID)
	if err != nil {
		// A missing destination never blocks release; the payout waits in
		// the queue until the seller configures one.
		log.Printf("transaction: no payout destination for seller %d: %v", sellerID, err)
		return payout.Destination{}, nil
	}
	return dest, nil
}

func newGatewayRef() string {
	return "BLZ-" + uuid.NewString()
}
