package handlers

import (
	"errors"
	"strconv"

	"blizz/internal/services/payout"
	"blizz/internal/utils/response"
	"blizz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// PayoutHandler is the admin surface of the settlement queue. Money leaves
// the platform manually: an admin exports pending requests, executes them
// on the rail, then records the outcome here.
type PayoutHandler struct {
	payoutService *payout.Service
}

func NewPayoutHandler(payoutService *payout.Service) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

func (h *PayoutHandler) ListPending(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	requests, err := h.payoutService.ListPending(limit, offset)
	if err != nil {
		return response.ServerError(c, "Failed to retrieve payout queue")
	}

	return c.JSON(fiber.Map{
		"payouts": requests,
		"page":    page,
		"limit":   limit,
		"total":   len(requests),
	})
}

func (h *PayoutHandler) MarkProcessing(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid payout id")
	}

	var input struct {
		GatewayPayoutID string `json:"gateway_payout_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	req, err := h.payoutService.MarkProcessing(id, input.GatewayPayoutID)
	if err != nil {
		return payoutError(c, err)
	}
	return response.Success(c, "Payout marked processing", req)
}

func (h *PayoutHandler) MarkCompleted(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid payout id")
	}

	req, err := h.payoutService.MarkCompleted(id)
	if err != nil {
		return payoutError(c, err)
	}
	return response.Success(c, "Payout completed", req)
}

func (h *PayoutHandler) MarkFailed(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid payout id")
	}

	var input struct {
		Reason string `json:"reason" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	req, err := h.payoutService.MarkFailed(id, input.Reason)
	if err != nil {
		return payoutError(c, err)
	}
	return response.Success(c, "Payout marked failed", req)
}

func payoutError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, payout.ErrPayoutNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, payout.ErrInvalidTransition):
		return response.BadRequest(c, err.Error())
	}
	return response.ServerError(c, "Payout update failed")
}
