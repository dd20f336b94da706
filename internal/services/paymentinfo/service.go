package paymentinfo

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	"unicode"

	"blizz/internal/models"
	"blizz/internal/repositories"
	"blizz/internal/services/payout"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/token"
)

var knownOperators = map[string]bool{
	models.OperatorOrange: true,
	models.OperatorWave:   true,
	models.OperatorMTN:    true,
	models.OperatorMoov:   true,
}

// MobileMoneyInput configures a mobile-money payout destination.
type MobileMoneyInput struct {
	PhoneNumber string
	Country     string
	Operator    string
}

// CardInput configures a bank-card payout destination. The number is
// tokenized at the gateway and never persisted.
type CardInput struct {
	CardNumber  string
	ExpiryMonth string
	ExpiryYear  string
}

type Service struct {
	repo repositories.PaymentInfoRepository
}

func NewService(repo repositories.PaymentInfoRepository) *Service {
	if repo == nil {
		panic("paymentinfo: nil repository")
	}
	return &Service{repo: repo}
}

func (s *Service) Get(userID uint) (*models.SellerPaymentInfo, error) {
	return s.repo.FindByUserID(userID)
}

// SetMobileMoney stores a sanitized mobile-money destination for the seller.
// Re-configuring a destination resets the verification flag.
func (s *Service) SetMobileMoney(userID uint, in MobileMoneyInput) (*models.SellerPaymentInfo, error) {
	phone, err := SanitizePhoneNumber(in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if !knownOperators[in.Operator] {
		return nil, ErrInvalidOperator
	}

	info, err := s.loadOrNew(userID)
	if err != nil {
		return nil, err
	}
	info.Method = models.PaymentMethodMobileMoney
	info.PhoneNumber = phone
	info.Country = strings.ToUpper(in.Country)
	info.Operator = in.Operator
	info.CardToken = ""
	info.CardBrand = ""
	info.IsVerified = false
	info.VerifiedAt = nil

	if err := s.repo.Save(info); err != nil {
		return nil, err
	}
	return info, nil
}

// SetCard tokenizes the card at the gateway and stores the token as the
// seller's payout destination.
func (s *Service) SetCard(userID uint, in CardInput) (*models.SellerPaymentInfo, error) {
	cardToken, brand, err := tokenizeCard(in)
	if err != nil {
		return nil, err
	}

	info, err := s.loadOrNew(userID)
	if err != nil {
		return nil, err
	}
	info.Method = models.PaymentMethodBankCard
	info.CardToken = cardToken
	info.CardBrand = brand
	info.PhoneNumber = ""
	info.Operator = ""
	info.IsVerified = false
	info.VerifiedAt = nil

	if err := s.repo.Save(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Verify marks the destination as payable. Admin-driven.
func (s *Service) Verify(userID uint) (*models.SellerPaymentInfo, error) {
	info, err := s.repo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if info == nil || !info.HasDestination() {
		return nil, ErrNotConfigured
	}
	now := time.Now()
	info.IsVerified = true
	info.VerifiedAt = &now
	if err := s.repo.Save(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Destination resolves the seller's verified payout routing data.
func (s *Service) Destination(userID uint) (payout.Destination, error) {
	info, err := s.repo.FindByUserID(userID)
	if err != nil {
		return payout.Destination{}, err
	}
	if info == nil || !info.HasDestination() {
		return payout.Destination{}, ErrNotConfigured
	}
	if !info.IsVerified {
		return payout.Destination{}, ErrNotVerified
	}
	return payout.Destination{
		Phone:    info.PhoneNumber,
		Country:  info.Country,
		Operator: info.Operator,
		CardRef:  info.CardToken,
	}, nil
}

func (s *Service) loadOrNew(userID uint) (*models.SellerPaymentInfo, error) {
	info, err := s.repo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if info == nil {
		info = &models.SellerPaymentInfo{UserID: userID}
	}
	return info, nil
}

// SanitizePhoneNumber normalizes a mobile-money number to digits with an
// optional leading +. Local numbers must be 8 to 10 digits, international
// ones up to 14.
func SanitizePhoneNumber(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.':
			// separators are dropped
		default:
			return "", ErrInvalidPhone
		}
	}
	phone := b.String()
	digits := strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, "+") {
		if len(digits) < 10 || len(digits) > 14 {
			return "", ErrInvalidPhone
		}
	} else if len(digits) < 8 || len(digits) > 10 {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

func tokenizeCard(in CardInput) (string, string, error) {
	// Test tokens pass straight through so staging never hits Stripe.
	if strings.HasPrefix(in.CardNumber, "tok_") {
		return in.CardNumber, "Unknown", nil
	}

	if !ValidCardNumber(in.CardNumber) {
		return "", "", ErrInvalidCard
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	params := &stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   &in.CardNumber,
			ExpMonth: &in.ExpiryMonth,
			ExpYear:  &in.ExpiryYear,
		},
	}
	stripeToken, err := token.New(params)
	if err != nil {
		log.Printf("card tokenization error: %v", err)
		return "", "", fmt.Errorf("%w: %v", ErrTokenizationFail, err)
	}
	return stripeToken.ID, string(stripeToken.Card.Brand), nil
}

// ValidCardNumber runs the Luhn check over a card number.
func ValidCardNumber(cardNumber string) bool {
	if len(cardNumber) < 12 || len(cardNumber) > 19 {
		return false
	}
	var sum int
	shouldDouble := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		if cardNumber[i] < '0' || cardNumber[i] > '9' {
			return false
		}
		digit := int(cardNumber[i] - '0')
		if shouldDouble {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		shouldDouble = !shouldDouble
	}
	return sum%10 == 0
}
