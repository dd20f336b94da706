package transaction

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPostNotAvailable    = errors.New("post is not available for purchase")
	ErrSelfPurchase        = errors.New("cannot purchase your own post")
	ErrNotBuyer            = errors.New("only the buyer can perform this action")
	ErrNotParty            = errors.New("user is not a party to this transaction")
	ErrInvalidTransition   = errors.New("invalid transaction state transition")
	ErrChargeSettled       = errors.New("charge already settled")
	ErrNoActiveCharge      = errors.New("no active charge for transaction")
)
