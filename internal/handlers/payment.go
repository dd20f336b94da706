package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"

	"blizz/internal/services/shop"
	"blizz/internal/services/transaction"
	"blizz/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// headerPaymentSignature carries the gateway's hex HMAC-SHA256 of the raw
// notification body.
const headerPaymentSignature = "X-Webhook-Signature"

type PaymentHandler struct {
	txService   *transaction.Service
	shopService *shop.Service
	secret      string
}

func NewPaymentHandler(txService *transaction.Service, shopService *shop.Service, secret string) *PaymentHandler {
	return &PaymentHandler{txService: txService, shopService: shopService, secret: secret}
}

// Notify is the gateway's server-to-server notification. The signature gate
// comes first; after that the body is only used to find the charge, and the
// verdict always comes from a fresh verification call back to the gateway.
// Replays are harmless: a settled charge short-circuits.
func (h *PaymentHandler) Notify(c *fiber.Ctx) error {
	if !h.verifySignature(c.Body(), c.Get(headerPaymentSignature)) {
		log.Printf("payment: notification signature mismatch from %s", c.IP())
		return response.Error(c, fiber.StatusUnauthorized, "Invalid webhook signature")
	}

	var input struct {
		TransactionID string `json:"cpm_trans_id" form:"cpm_trans_id"`
	}
	if err := c.BodyParser(&input); err != nil || input.TransactionID == "" {
		return response.BadRequest(c, "Missing transaction reference")
	}

	charge, err := h.txService.ApplyChargeVerdict(c.Context(), input.TransactionID)
	if err != nil {
		if errors.Is(err, transaction.ErrNoActiveCharge) {
			return response.NotFound(c, "Unknown charge")
		}
		log.Printf("payment: notification for %s failed: %v", input.TransactionID, err)
		return response.Error(c, fiber.StatusBadGateway, "Verification failed")
	}

	if charge.OrderID != nil && h.shopService != nil {
		if err := h.shopService.ApplyChargeOutcome(charge); err != nil {
			log.Printf("payment: order update for charge %s failed: %v", charge.GatewayRef, err)
		}
	}

	return response.Success(c, "Notification processed", fiber.Map{
		"gateway_ref": charge.GatewayRef,
		"status":      charge.Status,
	})
}

// Check lets the frontend poll a charge after the buyer returns from the
// payment page. Same verification path as Notify.
func (h *PaymentHandler) Check(c *fiber.Ctx) error {
	ref := c.Params("ref")
	if ref == "" {
		return response.BadRequest(c, "Missing charge reference")
	}

	charge, err := h.txService.ApplyChargeVerdict(c.Context(), ref)
	if err != nil {
		if errors.Is(err, transaction.ErrNoActiveCharge) {
			return response.NotFound(c, "Unknown charge")
		}
		return response.Error(c, fiber.StatusBadGateway, "Verification failed")
	}

	if charge.OrderID != nil && h.shopService != nil {
		if err := h.shopService.ApplyChargeOutcome(charge); err != nil {
			log.Printf("payment: order update for charge %s failed: %v", charge.GatewayRef, err)
		}
	}

	return response.Success(c, "Charge status", fiber.Map{
		"gateway_ref": charge.GatewayRef,
		"status":      charge.Status,
	})
}

func (h *PaymentHandler) verifySignature(body []byte, signature string) bool {
	if h.secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
