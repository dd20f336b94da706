package dispute

import "errors"

var (
	ErrDisputeNotFound   = errors.New("dispute not found")
	ErrNotParty          = errors.New("only a party to the transaction can open a dispute")
	ErrInvalidReason     = errors.New("unknown dispute reason")
	ErrInvalidAmount     = errors.New("disputed amount exceeds transaction amount")
	ErrAlreadyOpen       = errors.New("transaction already has an open dispute")
	ErrNotDisputable     = errors.New("transaction cannot be disputed in its current state")
	ErrAlreadyResolved   = errors.New("dispute already resolved")
	ErrInvalidResolution = errors.New("resolution must favor buyer or seller")
	ErrDataInconsistency = errors.New("settled money objects missing for disputed transaction")
)
