package gateway

import "context"

// ChargeVerdict is the gateway's answer for a charge. Anything the gateway
// reports that is not a definitive accept or refuse maps to StatusPending,
// so a possibly-successful charge is never cancelled on bad data.
type ChargeVerdict string

const (
	StatusAccepted ChargeVerdict = "ACCEPTED"
	StatusRefused  ChargeVerdict = "REFUSED"
	StatusPending  ChargeVerdict = "PENDING"
)

// ChargeRequest describes one collection attempt. Amount is in whole units
// of the settlement currency; the wire format takes integers.
type ChargeRequest struct {
	ChargeID        string
	Amount          float64
	Currency        string
	Description     string
	CustomerID      string
	CustomerName    string
	CustomerSurname string
	CustomerEmail   string
	CustomerPhone   string
	CustomerCity    string
	CustomerCountry string
	ReturnURL       string
	NotifyURL       string
	CancelURL       string
}

// ChargeSession is what the buyer needs to complete payment.
type ChargeSession struct {
	ChargeID     string
	PaymentURL   string
	PaymentToken string
}

// TransferRequest sends held money out on the mobile-money rail. Used by
// the manual settlement path only.
type TransferRequest struct {
	TransferID string
	Amount     float64
	Currency   string
	Phone      string
	Country    string
	Operator   string
}

// Gateway is the payment-processor seam. Implementations never mutate
// domain state; they return verdicts for the state machine to apply.
type Gateway interface {
	InitiateCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error)
	VerifyCharge(ctx context.Context, chargeID string) (ChargeVerdict, error)
	Transfer(ctx context.Context, req TransferRequest) (transferRef string, err error)
}
