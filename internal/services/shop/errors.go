package shop

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrProductInactive = errors.New("product is not purchasable")
	ErrEmptyOrder      = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrOrderNotPayable = errors.New("order is not awaiting payment")
	ErrUnknownWebhook  = errors.New("unhandled webhook topic")
)
