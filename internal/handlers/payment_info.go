package handlers

import (
	"errors"
	"strconv"

	"blizz/internal/models"
	"blizz/internal/services/paymentinfo"
	"blizz/internal/utils/response"
	"blizz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type PaymentInfoHandler struct {
	infoService *paymentinfo.Service
}

func NewPaymentInfoHandler(infoService *paymentinfo.Service) *PaymentInfoHandler {
	return &PaymentInfoHandler{infoService: infoService}
}

func (h *PaymentInfoHandler) Get(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)
	info, err := h.infoService.Get(claims.UserID)
	if err != nil {
		return response.ServerError(c, "Failed to retrieve payment info")
	}
	if info == nil {
		return response.NotFound(c, "No payment info configured")
	}
	return response.Success(c, "Payment info", sanitizeInfo(info))
}

func (h *PaymentInfoHandler) SetMobileMoney(c *fiber.Ctx) error {
	var input struct {
		PhoneNumber string `json:"phone_number" validate:"required"`
		Country     string `json:"country" validate:"required,len=2"`
		Operator    string `json:"operator" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	claims := c.Locals("claims").(*models.UserClaims)
	info, err := h.infoService.SetMobileMoney(claims.UserID, paymentinfo.MobileMoneyInput{
		PhoneNumber: input.PhoneNumber,
		Country:     input.Country,
		Operator:    input.Operator,
	})
	if err != nil {
		switch {
		case errors.Is(err, paymentinfo.ErrInvalidPhone), errors.Is(err, paymentinfo.ErrInvalidOperator):
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "Failed to save payment info")
	}

	return response.Success(c, "Payment info saved", sanitizeInfo(info))
}

func (h *PaymentInfoHandler) SetCard(c *fiber.Ctx) error {
	var input struct {
		CardNumber  string `json:"card_number" validate:"required"`
		ExpiryMonth string `json:"expiry_month" validate:"required"`
		ExpiryYear  string `json:"expiry_year" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	claims := c.Locals("claims").(*models.UserClaims)
	info, err := h.infoService.SetCard(claims.UserID, paymentinfo.CardInput{
		CardNumber:  input.CardNumber,
		ExpiryMonth: input.ExpiryMonth,
		ExpiryYear:  input.ExpiryYear,
	})
	if err != nil {
		switch {
		case errors.Is(err, paymentinfo.ErrInvalidCard):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, paymentinfo.ErrTokenizationFail):
			return response.Error(c, fiber.StatusBadGateway, "Card tokenization failed")
		}
		return response.ServerError(c, "Failed to save payment info")
	}

	return response.Success(c, "Payment info saved", sanitizeInfo(info))
}

// Verify is the admin gate on payout destinations.
func (h *PaymentInfoHandler) Verify(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	info, err := h.infoService.Verify(uint(userID))
	if err != nil {
		if errors.Is(err, paymentinfo.ErrNotConfigured) {
			return response.NotFound(c, err.Error())
		}
		return response.ServerError(c, "Failed to verify payment info")
	}

	return response.Success(c, "Payment info verified", sanitizeInfo(info))
}

// sanitizeInfo strips the gateway token; only the brand is shown back.
func sanitizeInfo(info *models.SellerPaymentInfo) fiber.Map {
	return fiber.Map{
		"method":       info.Method,
		"phone_number": info.PhoneNumber,
		"country":      info.Country,
		"operator":     info.Operator,
		"card_brand":   info.CardBrand,
		"is_verified":  info.IsVerified,
		"verified_at":  info.VerifiedAt,
	}
}
