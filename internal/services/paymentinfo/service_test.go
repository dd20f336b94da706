package paymentinfo

import (
	"testing"

	"blizz/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInfoRepo struct {
	byUser map[uint]*models.SellerPaymentInfo
}

func newFakeInfoRepo() *fakeInfoRepo {
	return &fakeInfoRepo{byUser: map[uint]*models.SellerPaymentInfo{}}
}

func (r *fakeInfoRepo) FindByUserID(userID uint) (*models.SellerPaymentInfo, error) {
	info, ok := r.byUser[userID]
	if !ok {
		return nil, nil
	}
	copied := *info
	return &copied, nil
}

func (r *fakeInfoRepo) Save(info *models.SellerPaymentInfo) error {
	stored := *info
	r.byUser[info.UserID] = &stored
	return nil
}

func TestSanitizePhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "local number", raw: "0701020304", want: "0701020304"},
		{name: "international number", raw: "+2250701020304", want: "+2250701020304"},
		{name: "separators dropped", raw: "+225 07 01-02.03 04", want: "+2250701020304"},
		{name: "local too short", raw: "0701020", wantErr: ErrInvalidPhone},
		{name: "local too long", raw: "07010203040", wantErr: ErrInvalidPhone},
		{name: "international too long", raw: "+225070102030405678", wantErr: ErrInvalidPhone},
		{name: "plus in the middle", raw: "07+01020304", wantErr: ErrInvalidPhone},
		{name: "letters rejected", raw: "07O1020304", wantErr: ErrInvalidPhone},
		{name: "empty", raw: "", wantErr: ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePhoneNumber(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidCardNumber(t *testing.T) {
	assert.True(t, ValidCardNumber("4242424242424242"))
	assert.True(t, ValidCardNumber("4000056655665556"))
	assert.False(t, ValidCardNumber("4242424242424241"), "luhn failure")
	assert.False(t, ValidCardNumber("42424242424"), "too short")
	assert.False(t, ValidCardNumber("42424242424242424242"), "too long")
	assert.False(t, ValidCardNumber("4242 4242 4242 4242"), "non-digits")
}

func TestSetMobileMoney(t *testing.T) {
	t.Run("stores a sanitized destination", func(t *testing.T) {
		svc := NewService(newFakeInfoRepo())

		info, err := svc.SetMobileMoney(1, MobileMoneyInput{
			PhoneNumber: "+225 07 01 02 03 04",
			Country:     "ci",
			Operator:    models.OperatorOrange,
		})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentMethodMobileMoney, info.Method)
		assert.Equal(t, "+2250701020304", info.PhoneNumber)
		assert.Equal(t, "CI", info.Country)
		assert.False(t, info.IsVerified)
	})

	t.Run("unknown operator is rejected", func(t *testing.T) {
		svc := NewService(newFakeInfoRepo())

		_, err := svc.SetMobileMoney(1, MobileMoneyInput{
			PhoneNumber: "0701020304",
			Country:     "CI",
			Operator:    "carrier_pigeon",
		})
		assert.ErrorIs(t, err, ErrInvalidOperator)
	})

	t.Run("reconfiguring resets verification", func(t *testing.T) {
		repo := newFakeInfoRepo()
		svc := NewService(repo)

		_, err := svc.SetMobileMoney(1, MobileMoneyInput{
			PhoneNumber: "0701020304",
			Country:     "CI",
			Operator:    models.OperatorWave,
		})
		require.NoError(t, err)
		_, err = svc.Verify(1)
		require.NoError(t, err)

		info, err := svc.SetMobileMoney(1, MobileMoneyInput{
			PhoneNumber: "0509080706",
			Country:     "CI",
			Operator:    models.OperatorMTN,
		})
		require.NoError(t, err)
		assert.False(t, info.IsVerified)
		assert.Nil(t, info.VerifiedAt)
	})
}

func TestSetCard(t *testing.T) {
	t.Run("test token passes through without tokenization", func(t *testing.T) {
		svc := NewService(newFakeInfoRepo())

		info, err := svc.SetCard(1, CardInput{CardNumber: "tok_visa"})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentMethodBankCard, info.Method)
		assert.Equal(t, "tok_visa", info.CardToken)
		assert.Empty(t, info.PhoneNumber)
	})

	t.Run("invalid card number is rejected before the gateway", func(t *testing.T) {
		svc := NewService(newFakeInfoRepo())

		_, err := svc.SetCard(1, CardInput{CardNumber: "4242424242424241"})
		assert.ErrorIs(t, err, ErrInvalidCard)
	})
}

func TestVerify(t *testing.T) {
	t.Run("marks a configured destination payable", func(t *testing.T) {
		svc := NewService(newFakeInfoRepo())

		_, err := svc.SetMobileMoney(1, MobileMoneyInput{
			PhoneNumber: "0701020304",
			Country:     "CI",
			Operator:    models.OperatorOrange,
		})
		require.NoError(t, err)

		info, err := svc.Verify(1)
		require.NoError(t, err)
		assert.True(t, info.IsVerified)
		assert.NotNil(t, info.VerifiedAt)
	})

	t.Run("refuses when nothing is configured", func(t *testing.T) {
		svc := NewService(newFakeInfoRepo())

		_, err := svc.Verify(1)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestDestination(t *testing.T) {
	svc := NewService(newFakeInfoRepo())

	_, err := svc.Destination(1)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = svc.SetMobileMoney(1, MobileMoneyInput{
		PhoneNumber: "+2250701020304",
		Country:     "CI",
		Operator:    models.OperatorWave,
	})
	require.NoError(t, err)

	_, err = svc.Destination(1)
	assert.ErrorIs(t, err, ErrNotVerified)

	_, err = svc.Verify(1)
	require.NoError(t, err)

	dest, err := svc.Destination(1)
	require.NoError(t, err)
	assert.Equal(t, "+2250701020304", dest.Phone)
	assert.Equal(t, "CI", dest.Country)
	assert.Equal(t, models.OperatorWave, dest.Operator)
	assert.Empty(t, dest.CardRef)
}
