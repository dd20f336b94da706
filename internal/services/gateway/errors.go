package gateway

import "errors"

var (
	// ErrGatewayUnavailable covers network failures and 5xx responses. The
	// caller retries later without touching domain state.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrGatewayRejected is an explicit rejection by the gateway. Terminal.
	ErrGatewayRejected = errors.New("payment gateway rejected the request")
)
