package dispute

import (
	"testing"
	"time"

	"blizz/internal/models"
	"blizz/internal/services/payout"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeDisputeRepo struct {
	byID map[uuid.UUID]*models.Dispute
}

func newFakeDisputeRepo() *fakeDisputeRepo {
	return &fakeDisputeRepo{byID: map[uuid.UUID]*models.Dispute{}}
}

func (r *fakeDisputeRepo) Create(d *models.Dispute) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Deadline.IsZero() {
		d.Deadline = time.Now().Add(models.DefaultDisputeDeadline)
	}
	stored := *d
	r.byID[d.ID] = &stored
	return nil
}

func (r *fakeDisputeRepo) FindByID(id uuid.UUID) (*models.Dispute, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDisputeRepo) FindOpenByTransaction(transactionID uuid.UUID) (*models.Dispute, error) {
	for _, d := range r.byID {
		if d.TransactionID == transactionID && d.Status.Open() {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeDisputeRepo) Update(d *models.Dispute) error {
	stored := *d
	r.byID[d.ID] = &stored
	return nil
}

func (r *fakeDisputeRepo) ListOpen(limit, offset int) ([]models.Dispute, error) {
	var out []models.Dispute
	for _, d := range r.byID {
		if d.Status.Open() {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDisputeRepo) ListOverdue(now time.Time) ([]models.Dispute, error) {
	var out []models.Dispute
	for _, d := range r.byID {
		if d.IsOverdue(now) {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeTxRepo struct {
	byID map[uuid.UUID]*models.Transaction
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{byID: map[uuid.UUID]*models.Transaction{}}
}

func (r *fakeTxRepo) Create(tx *models.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	stored := *tx
	r.byID[tx.ID] = &stored
	return nil
}

func (r *fakeTxRepo) FindByID(id uuid.UUID) (*models.Transaction, error) {
	tx, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *tx
	return &copied, nil
}

func (r *fakeTxRepo) Update(tx *models.Transaction) error {
	stored := *tx
	r.byID[tx.ID] = &stored
	return nil
}

func (r *fakeTxRepo) ListByUser(uint, int, int) ([]models.Transaction, error) { return nil, nil }

func (r *fakeTxRepo) ListAutoCompletable(time.Time, int) ([]models.Transaction, error) {
	return nil, nil
}

type fakeChargeRepo struct {
	byTx map[uuid.UUID]*models.PaymentCharge
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{byTx: map[uuid.UUID]*models.PaymentCharge{}}
}

func (r *fakeChargeRepo) Create(charge *models.PaymentCharge) error {
	if charge.ID == uuid.Nil {
		charge.ID = uuid.New()
	}
	stored := *charge
	r.byTx[*charge.TransactionID] = &stored
	return nil
}

func (r *fakeChargeRepo) FindByGatewayRef(string) (*models.PaymentCharge, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeChargeRepo) FindByID(uuid.UUID) (*models.PaymentCharge, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeChargeRepo) FindActiveByTransaction(transactionID uuid.UUID) (*models.PaymentCharge, error) {
	charge, ok := r.byTx[transactionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *charge
	return &copied, nil
}

func (r *fakeChargeRepo) Update(charge *models.PaymentCharge) error { return nil }

func (r *fakeChargeRepo) SupersedePending(uuid.UUID) error { return nil }

type fakeHoldRepo struct {
	byCharge map[uuid.UUID]*models.EscrowHold
}

func newFakeHoldRepo() *fakeHoldRepo {
	return &fakeHoldRepo{byCharge: map[uuid.UUID]*models.EscrowHold{}}
}

func (r *fakeHoldRepo) GetOrCreate(hold *models.EscrowHold) error {
	if hold.ID == uuid.Nil {
		hold.ID = uuid.New()
	}
	stored := *hold
	r.byCharge[hold.ChargeID] = &stored
	return nil
}

func (r *fakeHoldRepo) FindByID(uuid.UUID) (*models.EscrowHold, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeHoldRepo) FindByChargeID(chargeID uuid.UUID) (*models.EscrowHold, error) {
	hold, ok := r.byCharge[chargeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *hold
	return &copied, nil
}

func (r *fakeHoldRepo) Update(hold *models.EscrowHold) error {
	stored := *hold
	r.byCharge[hold.ChargeID] = &stored
	return nil
}

type fakeSettler struct {
	released []float64
	refunded []float64
}

func (s *fakeSettler) Release(hold *models.EscrowHold, dest payout.Destination) (*models.PayoutRequest, error) {
	s.released = append(s.released, hold.Amount)
	hold.Status = models.EscrowReleased
	return &models.PayoutRequest{ID: uuid.New()}, nil
}

func (s *fakeSettler) Refund(hold *models.EscrowHold, amount float64, dest payout.Destination) (*models.PayoutRequest, error) {
	s.refunded = append(s.refunded, amount)
	hold.Status = models.EscrowRefunded
	return &models.PayoutRequest{ID: uuid.New()}, nil
}

type fakeResolver struct{}

func (fakeResolver) Destination(uint) (payout.Destination, error) {
	return payout.Destination{Phone: "+2250701020304"}, nil
}

type harness struct {
	svc      *Service
	txs      *fakeTxRepo
	disputes *fakeDisputeRepo
	charges  *fakeChargeRepo
	holds    *fakeHoldRepo
	settler  *fakeSettler
}

func newHarness() *harness {
	disputes := newFakeDisputeRepo()
	txs := newFakeTxRepo()
	charges := newFakeChargeRepo()
	holds := newFakeHoldRepo()
	settler := &fakeSettler{}
	svc := NewService(disputes, txs, charges, holds, settler, fakeResolver{}, nil)
	return &harness{svc: svc, txs: txs, disputes: disputes, charges: charges, holds: holds, settler: settler}
}

// paidDeal seeds a processing transaction with a settled charge and hold.
func (h *harness) paidDeal(t *testing.T) *models.Transaction {
	tx := &models.Transaction{
		BuyerID:  1,
		SellerID: 2,
		PostID:   uuid.New(),
		Amount:   50,
		Currency: "EUR",
		Status:   models.TransactionProcessing,
	}
	require.NoError(t, h.txs.Create(tx))

	charge := &models.PaymentCharge{
		TransactionID: &tx.ID,
		GatewayRef:    "BLZ-" + tx.ID.String(),
		Amount:        32895,
		Currency:      "XOF",
		Status:        models.ChargeReceived,
	}
	require.NoError(t, h.charges.Create(charge))

	hold := &models.EscrowHold{
		ChargeID: charge.ID,
		Amount:   charge.Amount,
		Currency: charge.Currency,
		Status:   models.EscrowInEscrow,
	}
	require.NoError(t, h.holds.GetOrCreate(hold))
	return tx
}

func validInput() OpenInput {
	return OpenInput{
		Reason:         models.DisputeReasonInvalidAccount,
		Description:    "credentials do not work",
		DisputedAmount: 50,
	}
}

func TestOpenDispute(t *testing.T) {
	t.Run("party opens a dispute and the deal freezes", func(t *testing.T) {
		h := newHarness()
		tx := h.paidDeal(t)

		d, err := h.svc.Open(tx.ID, 1, validInput())
		require.NoError(t, err)
		assert.Equal(t, models.DisputePending, d.Status)
		assert.False(t, d.Deadline.IsZero())

		stored, err := h.txs.FindByID(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionDisputed, stored.Status)
	})

	t.Run("outsider cannot open", func(t *testing.T) {
		h := newHarness()
		tx := h.paidDeal(t)

		_, err := h.svc.Open(tx.ID, 99, validInput())
		assert.ErrorIs(t, err, ErrNotParty)
	})

	t.Run("unknown reason is rejected", func(t *testing.T) {
		h := newHarness()
		tx := h.paidDeal(t)

		in := validInput()
		in.Reason = "vibes"
		_, err := h.svc.Open(tx.ID, 1, in)
		assert.ErrorIs(t, err, ErrInvalidReason)
	})

	t.Run("disputed amount above the deal is rejected", func(t *testing.T) {
		h := newHarness()
		tx := h.paidDeal(t)

		in := validInput()
		in.DisputedAmount = 51
		_, err := h.svc.Open(tx.ID, 1, in)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("one open dispute per transaction", func(t *testing.T) {
		h := newHarness()
		tx := h.paidDeal(t)

		_, err := h.svc.Open(tx.ID, 1, validInput())
		require.NoError(t, err)
		_, err = h.svc.Open(tx.ID, 2, validInput())
		assert.ErrorIs(t, err, ErrAlreadyOpen)
	})

	t.Run("pending payment deal is not disputable", func(t *testing.T) {
		h := newHarness()
		tx := h.paidDeal(t)
		tx.Status = models.TransactionPendingPayment
		require.NoError(t, h.txs.Update(tx))

		_, err := h.svc.Open(tx.ID, 1, validInput())
		assert.ErrorIs(t, err, ErrNotDisputable)
	})
}

func TestResolve(t *testing.T) {
	open := func(t *testing.T, h *harness) (*models.Transaction, *models.Dispute) {
		tx := h.paidDeal(t)
		d, err := h.svc.Open(tx.ID, 1, validInput())
		require.NoError(t, err)
		return tx, d
	}

	t.Run("buyer wins and the deal refunds", func(t *testing.T) {
		h := newHarness()
		tx, d := open(t, h)

		resolved, err := h.svc.Resolve(d.ID, 10, ResolveInput{Resolution: ResolveBuyer})
		require.NoError(t, err)
		assert.Equal(t, models.DisputeResolvedBuyer, resolved.Status)
		assert.NotNil(t, resolved.ResolvedAt)
		require.NotNil(t, resolved.RefundAmount)
		assert.Equal(t, 32895.0, *resolved.RefundAmount)
		assert.Equal(t, []float64{32895}, h.settler.refunded)

		stored, err := h.txs.FindByID(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionRefunded, stored.Status)
	})

	t.Run("partial refund is honored", func(t *testing.T) {
		h := newHarness()
		_, d := open(t, h)

		resolved, err := h.svc.Resolve(d.ID, 10, ResolveInput{Resolution: ResolveBuyer, RefundAmount: 10000})
		require.NoError(t, err)
		require.NotNil(t, resolved.RefundAmount)
		assert.Equal(t, 10000.0, *resolved.RefundAmount)
	})

	t.Run("seller wins and the deal completes", func(t *testing.T) {
		h := newHarness()
		tx, d := open(t, h)

		resolved, err := h.svc.Resolve(d.ID, 10, ResolveInput{Resolution: ResolveSeller, AdminNotes: "evidence checks out"})
		require.NoError(t, err)
		assert.Equal(t, models.DisputeResolvedSeller, resolved.Status)
		assert.Nil(t, resolved.RefundAmount)
		assert.Len(t, h.settler.released, 1)

		stored, err := h.txs.FindByID(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCompleted, stored.Status)
		assert.NotNil(t, stored.CompletedAt)
	})

	t.Run("resolution straight from pending is allowed", func(t *testing.T) {
		h := newHarness()
		_, d := open(t, h)
		assert.Equal(t, models.DisputePending, d.Status)

		_, err := h.svc.Resolve(d.ID, 10, ResolveInput{Resolution: ResolveSeller})
		assert.NoError(t, err)
	})

	t.Run("second resolution is refused", func(t *testing.T) {
		h := newHarness()
		_, d := open(t, h)

		_, err := h.svc.Resolve(d.ID, 10, ResolveInput{Resolution: ResolveSeller})
		require.NoError(t, err)
		_, err = h.svc.Resolve(d.ID, 10, ResolveInput{Resolution: ResolveBuyer})
		assert.ErrorIs(t, err, ErrAlreadyResolved)
	})

	t.Run("bad resolution value is rejected", func(t *testing.T) {
		h := newHarness()
		_, d := open(t, h)

		_, err := h.svc.Resolve(d.ID, 10, ResolveInput{Resolution: "split"})
		assert.ErrorIs(t, err, ErrInvalidResolution)
	})

	t.Run("missing hold is a data inconsistency", func(t *testing.T) {
		h := newHarness()
		tx, d := open(t, h)

		charge, err := h.charges.FindActiveByTransaction(tx.ID)
		require.NoError(t, err)
		delete(h.holds.byCharge, charge.ID)

		_, err = h.svc.Resolve(d.ID, 10, ResolveInput{Resolution: ResolveBuyer})
		assert.ErrorIs(t, err, ErrDataInconsistency)
	})
}

func TestAssign(t *testing.T) {
	h := newHarness()
	tx := h.paidDeal(t)
	d, err := h.svc.Open(tx.ID, 1, validInput())
	require.NoError(t, err)

	assigned, err := h.svc.Assign(d.ID, 10, "high")
	require.NoError(t, err)
	assert.Equal(t, models.DisputeInProgress, assigned.Status)
	require.NotNil(t, assigned.AssignedAdminID)
	assert.Equal(t, uint(10), *assigned.AssignedAdminID)
	assert.Equal(t, "high", assigned.Priority)
}

func TestListOverdue(t *testing.T) {
	h := newHarness()
	tx := h.paidDeal(t)
	d, err := h.svc.Open(tx.ID, 1, validInput())
	require.NoError(t, err)

	overdue, err := h.svc.ListOverdue(time.Now())
	require.NoError(t, err)
	assert.Empty(t, overdue)

	overdue, err = h.svc.ListOverdue(d.Deadline.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, overdue, 1)
}
