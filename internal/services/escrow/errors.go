package escrow

import "errors"

var (
	ErrHoldNotFound     = errors.New("escrow hold not found")
	ErrChargeNotSettled = errors.New("charge has not been settled")
	ErrHoldCancelled    = errors.New("escrow hold was cancelled")
)
