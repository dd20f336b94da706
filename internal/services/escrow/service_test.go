package escrow

import (
	"testing"

	"blizz/internal/models"
	"blizz/internal/services/payout"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEscrowRepo struct {
	byCharge map[uuid.UUID]*models.EscrowHold
	byID     map[uuid.UUID]*models.EscrowHold
}

func newFakeEscrowRepo() *fakeEscrowRepo {
	return &fakeEscrowRepo{
		byCharge: map[uuid.UUID]*models.EscrowHold{},
		byID:     map[uuid.UUID]*models.EscrowHold{},
	}
}

func (r *fakeEscrowRepo) GetOrCreate(hold *models.EscrowHold) error {
	if existing, ok := r.byCharge[hold.ChargeID]; ok {
		*hold = *existing
		return nil
	}
	if hold.ID == uuid.Nil {
		hold.ID = uuid.New()
	}
	stored := *hold
	r.byCharge[hold.ChargeID] = &stored
	r.byID[hold.ID] = &stored
	return nil
}

func (r *fakeEscrowRepo) FindByID(id uuid.UUID) (*models.EscrowHold, error) {
	hold, ok := r.byID[id]
	if !ok {
		return nil, assert.AnError
	}
	copied := *hold
	return &copied, nil
}

func (r *fakeEscrowRepo) FindByChargeID(chargeID uuid.UUID) (*models.EscrowHold, error) {
	hold, ok := r.byCharge[chargeID]
	if !ok {
		return nil, assert.AnError
	}
	copied := *hold
	return &copied, nil
}

func (r *fakeEscrowRepo) Update(hold *models.EscrowHold) error {
	stored := *hold
	r.byID[hold.ID] = &stored
	r.byCharge[hold.ChargeID] = &stored
	return nil
}

type fakeEnqueuer struct {
	byHold  map[uuid.UUID]*models.PayoutRequest
	entries int
}

func newFakeEnqueuer() *fakeEnqueuer {
	return &fakeEnqueuer{byHold: map[uuid.UUID]*models.PayoutRequest{}}
}

func (f *fakeEnqueuer) Enqueue(hold *models.EscrowHold, payoutType models.PayoutType, originalAmount float64, dest payout.Destination) (*models.PayoutRequest, error) {
	if existing, ok := f.byHold[hold.ID]; ok {
		return existing, nil
	}
	f.entries++
	req := &models.PayoutRequest{
		ID:             uuid.New(),
		EscrowHoldID:   hold.ID,
		Amount:         originalAmount,
		OriginalAmount: originalAmount,
		PayoutType:     payoutType,
		Status:         models.PayoutPending,
	}
	f.byHold[hold.ID] = req
	return req, nil
}

func (f *fakeEnqueuer) ExistingForHold(holdID uuid.UUID) (*models.PayoutRequest, error) {
	return f.byHold[holdID], nil
}

func settledCharge() *models.PaymentCharge {
	return &models.PaymentCharge{
		ID:         uuid.New(),
		GatewayRef: "BLZ-test",
		Amount:     6579,
		Currency:   "XOF",
		Status:     models.ChargeReceived,
	}
}

func TestOpen(t *testing.T) {
	t.Run("settled charge opens a hold", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		charge := settledCharge()

		hold, err := s.Open(charge)
		require.NoError(t, err)
		assert.Equal(t, models.EscrowInEscrow, hold.Status)
		assert.Equal(t, charge.Amount, hold.Amount)
		assert.Equal(t, charge.ID, hold.ChargeID)
	})

	t.Run("open is idempotent per charge", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		charge := settledCharge()

		first, err := s.Open(charge)
		require.NoError(t, err)
		second, err := s.Open(charge)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("unsettled charge is refused", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		charge := settledCharge()
		charge.Status = models.ChargePending

		_, err := s.Open(charge)
		assert.ErrorIs(t, err, ErrChargeNotSettled)
	})
}

func TestRelease(t *testing.T) {
	t.Run("release enqueues a seller payout and stamps the hold", func(t *testing.T) {
		repo := newFakeEscrowRepo()
		enq := newFakeEnqueuer()
		s := NewService(repo, enq, nil)

		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		req, err := s.Release(hold, payout.Destination{Phone: "+2250701020304"})
		require.NoError(t, err)
		assert.Equal(t, models.PayoutSeller, req.PayoutType)
		assert.Equal(t, models.EscrowReleased, hold.Status)
		assert.NotNil(t, hold.ReleasedAt)
		assert.Nil(t, hold.RefundedAt)
	})

	t.Run("re-release returns the original payout", func(t *testing.T) {
		repo := newFakeEscrowRepo()
		enq := newFakeEnqueuer()
		s := NewService(repo, enq, nil)

		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		first, err := s.Release(hold, payout.Destination{})
		require.NoError(t, err)
		second, err := s.Release(hold, payout.Destination{})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, enq.entries)
	})

	t.Run("released hold cannot be refunded", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		_, err = s.Release(hold, payout.Destination{})
		require.NoError(t, err)
		_, err = s.Refund(hold, hold.Amount, payout.Destination{})
		assert.Error(t, err)
	})
}

func TestRefund(t *testing.T) {
	t.Run("partial refund keeps the requested amount", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		req, err := s.Refund(hold, 3000, payout.Destination{})
		require.NoError(t, err)
		assert.Equal(t, models.PayoutRefund, req.PayoutType)
		assert.Equal(t, 3000.0, req.Amount)
		assert.Equal(t, models.EscrowRefunded, hold.Status)
		assert.NotNil(t, hold.RefundedAt)
	})

	t.Run("out-of-range amount clamps to the full hold", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		req, err := s.Refund(hold, 99999, payout.Destination{})
		require.NoError(t, err)
		assert.Equal(t, hold.Amount, req.Amount)
	})

	t.Run("refunded hold cannot be released", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		_, err = s.Refund(hold, 0, payout.Destination{})
		require.NoError(t, err)
		_, err = s.Release(hold, payout.Destination{})
		assert.Error(t, err)
	})
}

func TestCancel(t *testing.T) {
	t.Run("open hold cancels without payout", func(t *testing.T) {
		enq := newFakeEnqueuer()
		s := NewService(newFakeEscrowRepo(), enq, nil)
		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		require.NoError(t, s.Cancel(hold))
		assert.Equal(t, models.EscrowCancelled, hold.Status)
		assert.Zero(t, enq.entries)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		require.NoError(t, s.Cancel(hold))
		require.NoError(t, s.Cancel(hold))
	})

	t.Run("settled hold cannot be cancelled", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		_, err = s.Release(hold, payout.Destination{})
		require.NoError(t, err)
		assert.Error(t, s.Cancel(hold))
	})

	t.Run("cancelled hold refuses settlement", func(t *testing.T) {
		s := NewService(newFakeEscrowRepo(), newFakeEnqueuer(), nil)
		hold, err := s.Open(settledCharge())
		require.NoError(t, err)

		require.NoError(t, s.Cancel(hold))
		_, err = s.Release(hold, payout.Destination{})
		assert.ErrorIs(t, err, ErrHoldCancelled)
	})
}
