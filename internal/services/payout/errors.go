package payout

import "errors"

var (
	ErrPayoutNotFound    = errors.New("payout request not found")
	ErrInvalidTransition = errors.New("invalid payout status transition")
	ErrInvalidAmount     = errors.New("invalid payout amount")
)
