// Package gateway talks to the CinetPay checkout and transfer APIs.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const successCode = "201"

// Config carries the per-integration credentials and endpoints.
type Config struct {
	BaseURL string
	APIKey  string
	SiteID  string
	Timeout time.Duration
}

// Client is the HTTP implementation of Gateway.
type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-checkout.cinetpay.com/v2"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type apiResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		PaymentURL    string `json:"payment_url"`
		PaymentToken  string `json:"payment_token"`
		PaymentStatus string `json:"payment_status"`
		TransferRef   string `json:"transfer_ref"`
	} `json:"data"`
}

func (c *Client) InitiateCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error) {
	payload := map[string]interface{}{
		"apikey":                c.cfg.APIKey,
		"site_id":               c.cfg.SiteID,
		"transaction_id":        req.ChargeID,
		"amount":                int(req.Amount),
		"currency":              req.Currency,
		"description":           req.Description,
		"customer_id":           req.CustomerID,
		"customer_name":         req.CustomerName,
		"customer_surname":      req.CustomerSurname,
		"customer_email":        req.CustomerEmail,
		"customer_phone_number": req.CustomerPhone,
		"customer_city":         req.CustomerCity,
		"customer_country":      req.CustomerCountry,
		"return_url":            req.ReturnURL,
		"notify_url":            req.NotifyURL,
		"cancel_url":            req.CancelURL,
	}

	result, err := c.post(ctx, "/payment", payload)
	if err != nil {
		return nil, err
	}

	if result.Code == "" {
		// No parseable verdict; the caller may retry without side effects.
		return nil, fmt.Errorf("%w: unreadable response", ErrGatewayUnavailable)
	}
	if result.Code != successCode {
		return nil, fmt.Errorf("%w: %s (%s)", ErrGatewayRejected, result.Message, result.Code)
	}

	return &ChargeSession{
		ChargeID:     req.ChargeID,
		PaymentURL:   result.Data.PaymentURL,
		PaymentToken: result.Data.PaymentToken,
	}, nil
}

func (c *Client) VerifyCharge(ctx context.Context, chargeID string) (ChargeVerdict, error) {
	payload := map[string]interface{}{
		"apikey":         c.cfg.APIKey,
		"site_id":        c.cfg.SiteID,
		"transaction_id": chargeID,
	}

	result, err := c.post(ctx, "/payment/check", payload)
	if err != nil {
		return StatusPending, err
	}

	switch result.Data.PaymentStatus {
	case "ACCEPTED":
		return StatusAccepted, nil
	case "REFUSED":
		return StatusRefused, nil
	default:
		// Unknown or missing status: treat as still pending rather than
		// assuming a possibly-successful charge failed.
		log.Printf("gateway: unhandled payment status %q for %s", result.Data.PaymentStatus, chargeID)
		return StatusPending, nil
	}
}

func (c *Client) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	payload := map[string]interface{}{
		"apikey":      c.cfg.APIKey,
		"site_id":     c.cfg.SiteID,
		"transfer_id": req.TransferID,
		"amount":      int(req.Amount),
		"currency":    req.Currency,
		"phone":       req.Phone,
		"country":     req.Country,
		"operator":    req.Operator,
	}

	result, err := c.post(ctx, "/transfer", payload)
	if err != nil {
		return "", err
	}
	if result.Code != successCode {
		return "", fmt.Errorf("%w: %s (%s)", ErrGatewayRejected, result.Message, result.Code)
	}
	return result.Data.TransferRef, nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]interface{}) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		log.Printf("gateway: server error on %s: %d %s", path, resp.StatusCode, respBody)
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		// A malformed body is not evidence of failure; let the caller
		// keep the charge pending and re-verify later.
		log.Printf("gateway: malformed response on %s: %v", path, err)
		return &apiResponse{}, nil
	}
	return &result, nil
}
