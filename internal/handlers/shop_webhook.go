package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"

	"blizz/internal/services/shop"
	"blizz/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// Shopify-style webhook headers.
const (
	headerWebhookHmac  = "X-Shopify-Hmac-Sha256"
	headerWebhookTopic = "X-Shopify-Topic"
)

// ShopWebhookHandler receives e-commerce platform webhooks. Every request
// is authenticated by an HMAC-SHA256 over the raw body; anything that does
// not verify is rejected before parsing.
type ShopWebhookHandler struct {
	shopService *shop.Service
	secret      string
}

func NewShopWebhookHandler(shopService *shop.Service, secret string) *ShopWebhookHandler {
	return &ShopWebhookHandler{shopService: shopService, secret: secret}
}

func (h *ShopWebhookHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()
	if !h.verifySignature(body, c.Get(headerWebhookHmac)) {
		log.Printf("shop webhook: signature mismatch from %s", c.IP())
		return response.Error(c, fiber.StatusUnauthorized, "Invalid webhook signature")
	}

	topic := c.Get(headerWebhookTopic)
	var err error
	switch topic {
	case shop.TopicOrderCreated, shop.TopicOrderUpdated, shop.TopicOrderPaid,
		shop.TopicOrderCancelled, shop.TopicOrderFulfilled, shop.TopicRefundCreated:
		var payload shop.OrderWebhook
		if err := json.Unmarshal(body, &payload); err != nil {
			return response.BadRequest(c, "Invalid webhook payload")
		}
		err = h.shopService.ApplyOrderWebhook(topic, payload)
	case shop.TopicProductCreated, shop.TopicProductUpdated, shop.TopicProductDeleted:
		var payload shop.ProductWebhook
		if err := json.Unmarshal(body, &payload); err != nil {
			return response.BadRequest(c, "Invalid webhook payload")
		}
		err = h.shopService.ApplyProductWebhook(topic, payload)
	default:
		// Unknown topics are acknowledged so the platform stops retrying.
		return response.Success(c, "Webhook ignored", nil)
	}

	if err != nil {
		if errors.Is(err, shop.ErrUnknownWebhook) {
			return response.Success(c, "Webhook ignored", nil)
		}
		log.Printf("shop webhook: %s failed: %v", topic, err)
		return response.ServerError(c, "Webhook processing failed")
	}

	return response.Success(c, "Webhook processed", nil)
}

// verifySignature compares the expected base64 HMAC-SHA256 of the body in
// constant time.
func (h *ShopWebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
