package currency

import "errors"

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrAmountTooHigh       = errors.New("amount above gateway limit")
	ErrInvalidAmount       = errors.New("invalid amount")
)
