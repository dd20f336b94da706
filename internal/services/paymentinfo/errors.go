package paymentinfo

import "errors"

var (
	ErrInvalidPhone     = errors.New("invalid mobile money phone number")
	ErrInvalidCard      = errors.New("invalid card number")
	ErrInvalidOperator  = errors.New("unknown mobile money operator")
	ErrNotConfigured    = errors.New("no payment info configured")
	ErrNotVerified      = errors.New("payment info not verified")
	ErrTokenizationFail = errors.New("card tokenization failed")
)
