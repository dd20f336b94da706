package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// The signature gate runs before any parsing or verification, so these
// paths never need a wired service behind the handler.
func TestNotifySignatureGate(t *testing.T) {
	const secret = "ntfy_test"
	handler := NewPaymentHandler(nil, nil, secret)

	app := fiber.New()
	app.Post("/webhooks/payment", handler.Notify)

	post := func(body []byte, signature string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/webhooks/payment", bytes.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if signature != "" {
			req.Header.Set("X-Webhook-Signature", signature)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	t.Run("missing signature is rejected", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, post([]byte(`{"cpm_trans_id":"BLZ-1"}`), ""))
	})

	t.Run("wrong signature is rejected", func(t *testing.T) {
		body := []byte(`{"cpm_trans_id":"BLZ-1"}`)
		assert.Equal(t, fiber.StatusUnauthorized, post(body, signHex("other-secret", body)))
	})

	t.Run("valid signature reaches body validation", func(t *testing.T) {
		body := []byte(`{}`)
		assert.Equal(t, fiber.StatusBadRequest, post(body, signHex(secret, body)))
	})
}
