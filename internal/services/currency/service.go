// Package currency converts amounts between the display currencies shown to
// users and the settlement currency the payment rail actually moves.
package currency

import (
	"context"
	"fmt"
	"log"
	"time"

	"blizz/internal/utils"
)

// BaseCurrency is the currency listings are priced in; SettlementCurrency is
// what the gateway moves.
const (
	BaseCurrency       = "EUR"
	SettlementCurrency = "XOF"
)

// Fixed EUR/XOF peg. The CFA franc is pegged to the euro, so a live rate
// would only add noise to displayed prices.
const (
	eurToXOF = 657.89
	xofToEUR = 1 / eurToXOF
)

const rateCacheTTL = time.Hour

// gatewayLimits caps charge amounts per currency, mirroring the rail's
// accepted ranges.
var gatewayLimits = map[string]float64{
	"XOF": 2000000,
	"XAF": 2000000,
	"GNF": 20000000,
	"EUR": 3000,
	"USD": 3000,
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"XOF": "FCFA",
	"XAF": "FCFA",
	"GNF": "GNF",
	"NGN": "₦",
	"GHS": "₵",
	"MAD": "د.م.",
	"KES": "KSh",
	"ZAR": "R",
	"CAD": "CAD",
	"CHF": "CHF",
}

// currencyForCountry maps gateway-supported countries to their settlement
// currency.
var currencyForCountry = map[string]string{
	"CI": "XOF",
	"SN": "XOF",
	"BF": "XOF",
	"ML": "XOF",
	"NE": "XOF",
	"TG": "XOF",
	"BJ": "XOF",
	"GN": "GNF",
	"CM": "XAF",
	"CD": "CDF",
}

// RateCache is the Redis-backed cache seam.
type RateCache interface {
	GetFloat64(ctx context.Context, key string) (float64, bool, error)
	SetFloat64(ctx context.Context, key string, value float64, ttl time.Duration) error
}

// RateStore is the persisted fallback table seam.
type RateStore interface {
	Find(base, target string) (rate float64, updatedAt time.Time, found bool, err error)
	Upsert(base, target string, rate float64) error
}

// RateFetcher pulls a fresh rate from the external rate API.
type RateFetcher interface {
	Fetch(ctx context.Context, base, target string) (float64, error)
}

type Service struct {
	cache   RateCache
	store   RateStore
	fetcher RateFetcher
}

func NewService(cache RateCache, store RateStore, fetcher RateFetcher) *Service {
	if cache == nil || store == nil || fetcher == nil {
		panic("currency: all dependencies are required")
	}
	return &Service{cache: cache, store: store, fetcher: fetcher}
}

// Rate resolves the exchange rate for a pair: fixed peg, then cache, then
// fresh persisted rate, then the API, then any stale persisted rate, and as
// a last resort identity, which is logged as degraded.
func (s *Service) Rate(ctx context.Context, from, to string) float64 {
	if from == to {
		return 1
	}
	if from == "EUR" && (to == "XOF" || to == "XAF") {
		return eurToXOF
	}
	if (from == "XOF" || from == "XAF") && to == "EUR" {
		return xofToEUR
	}

	key := rateCacheKey(from, to)
	if rate, ok, err := s.cache.GetFloat64(ctx, key); err == nil && ok {
		return rate
	}

	var stale float64
	var hasStale bool
	if rate, updatedAt, found, err := s.store.Find(from, to); err == nil && found {
		if time.Since(updatedAt) < rateCacheTTL {
			_ = s.cache.SetFloat64(ctx, key, rate, rateCacheTTL)
			return rate
		}
		stale, hasStale = rate, true
	}

	if rate, err := s.fetcher.Fetch(ctx, from, to); err == nil {
		if err := s.store.Upsert(from, to, rate); err != nil {
			log.Printf("currency: failed to persist rate %s->%s: %v", from, to, err)
		}
		_ = s.cache.SetFloat64(ctx, key, rate, rateCacheTTL)
		return rate
	} else {
		log.Printf("currency: rate fetch %s->%s failed: %v", from, to, err)
	}

	if hasStale {
		log.Printf("currency: using stale persisted rate for %s->%s", from, to)
		return stale
	}

	log.Printf("currency: DEGRADED conversion %s->%s, no rate available, using 1:1", from, to)
	return 1
}

// Convert converts an amount between currencies and rounds per the target
// currency: whole units for subunit-less currencies, four decimals on the
// settlement-to-base path, two decimals everywhere else.
func (s *Service) Convert(ctx context.Context, amount float64, from, to string) float64 {
	if amount == 0 {
		return 0
	}
	converted := amount * s.Rate(ctx, from, to)
	return roundFor(converted, from, to)
}

func roundFor(v float64, from, to string) float64 {
	switch {
	case to == "GNF" || to == "XOF" || to == "XAF":
		return utils.RoundUnit(v)
	case (from == "XOF" || from == "XAF") && to == "EUR":
		return utils.Round4(v)
	default:
		return utils.Round2(v)
	}
}

// Display converts a base-currency amount into the user's preferred currency
// and formats it with the currency symbol.
func (s *Service) Display(ctx context.Context, amount float64, base, userCurrency string) (float64, string) {
	converted := s.Convert(ctx, amount, base, userCurrency)
	return converted, Format(converted, userCurrency)
}

// Format renders an amount with its currency symbol.
func Format(amount float64, code string) string {
	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code
	}
	switch code {
	case "XOF", "XAF", "GNF":
		return fmt.Sprintf("%.0f %s", amount, symbol)
	case "EUR", "GBP":
		return fmt.Sprintf("%.2f%s", amount, symbol)
	default:
		return fmt.Sprintf("%s%.2f", symbol, amount)
	}
}

// ValidateChargeAmount checks an amount against the gateway's accepted range
// for the currency before a charge is initiated.
func ValidateChargeAmount(amount float64, code string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %v %s", ErrInvalidAmount, amount, code)
	}
	limit, ok := gatewayLimits[code]
	if !ok {
		return nil
	}
	if amount > limit {
		return fmt.Errorf("%w: max %v %s", ErrAmountTooHigh, limit, code)
	}
	return nil
}

// ForCountry returns the settlement currency used in a gateway country.
func ForCountry(countryCode string) string {
	if c, ok := currencyForCountry[countryCode]; ok {
		return c
	}
	return SettlementCurrency
}

func rateCacheKey(from, to string) string {
	return fmt.Sprintf("exchange_rate:%s:%s", from, to)
}
