package handlers

import (
	"errors"
	"strconv"
	"time"

	"blizz/internal/models"
	"blizz/internal/services/dispute"
	"blizz/internal/utils/response"
	"blizz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DisputeHandler struct {
	disputeService *dispute.Service
}

func NewDisputeHandler(disputeService *dispute.Service) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

func (h *DisputeHandler) Open(c *fiber.Ctx) error {
	var input struct {
		TransactionID  string                 `json:"transaction_id" validate:"required,uuid4"`
		Reason         string                 `json:"reason" validate:"required"`
		Description    string                 `json:"description"`
		Evidence       map[string]interface{} `json:"evidence"`
		DisputedAmount float64                `json:"disputed_amount" validate:"required,gt=0"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}
	txID, err := uuid.Parse(input.TransactionID)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction id")
	}

	claims := c.Locals("claims").(*models.UserClaims)
	d, err := h.disputeService.Open(txID, claims.UserID, dispute.OpenInput{
		Reason:         input.Reason,
		Description:    input.Description,
		Evidence:       models.JSON(input.Evidence),
		DisputedAmount: input.DisputedAmount,
	})
	if err != nil {
		switch {
		case errors.Is(err, dispute.ErrDisputeNotFound):
			return response.NotFound(c, "Transaction not found")
		case errors.Is(err, dispute.ErrNotParty):
			return response.Forbidden(c, err.Error())
		case errors.Is(err, dispute.ErrInvalidReason),
			errors.Is(err, dispute.ErrInvalidAmount),
			errors.Is(err, dispute.ErrAlreadyOpen),
			errors.Is(err, dispute.ErrNotDisputable):
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "Failed to open dispute")
	}

	return response.Success(c, "Dispute opened", d)
}

func (h *DisputeHandler) Get(c *fiber.Ctx) error {
	disputeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid dispute id")
	}

	claims := c.Locals("claims").(*models.UserClaims)
	d, err := h.disputeService.Get(disputeID, claims.UserID, claims.IsAdmin())
	if err != nil {
		switch {
		case errors.Is(err, dispute.ErrDisputeNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, dispute.ErrNotParty):
			return response.Forbidden(c, err.Error())
		}
		return response.ServerError(c, "Failed to retrieve dispute")
	}

	return response.Success(c, "Dispute retrieved", d)
}

func (h *DisputeHandler) ListOpen(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	disputes, err := h.disputeService.ListOpen(limit, offset)
	if err != nil {
		return response.ServerError(c, "Failed to retrieve disputes")
	}

	return c.JSON(fiber.Map{
		"disputes": disputes,
		"page":     page,
		"limit":    limit,
		"total":    len(disputes),
	})
}

func (h *DisputeHandler) ListOverdue(c *fiber.Ctx) error {
	disputes, err := h.disputeService.ListOverdue(time.Now())
	if err != nil {
		return response.ServerError(c, "Failed to retrieve disputes")
	}
	return response.Success(c, "Overdue disputes", disputes)
}

func (h *DisputeHandler) Assign(c *fiber.Ctx) error {
	disputeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid dispute id")
	}

	var input struct {
		Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	claims := c.Locals("claims").(*models.UserClaims)
	d, err := h.disputeService.Assign(disputeID, claims.UserID, input.Priority)
	if err != nil {
		switch {
		case errors.Is(err, dispute.ErrDisputeNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, dispute.ErrAlreadyResolved):
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "Failed to assign dispute")
	}

	return response.Success(c, "Dispute assigned", d)
}

func (h *DisputeHandler) Resolve(c *fiber.Ctx) error {
	disputeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid dispute id")
	}

	var input struct {
		Resolution   string  `json:"resolution" validate:"required,oneof=buyer seller"`
		AdminNotes   string  `json:"admin_notes"`
		RefundAmount float64 `json:"refund_amount" validate:"omitempty,gt=0"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	claims := c.Locals("claims").(*models.UserClaims)
	d, err := h.disputeService.Resolve(disputeID, claims.UserID, dispute.ResolveInput{
		Resolution:   dispute.Resolution(input.Resolution),
		AdminNotes:   input.AdminNotes,
		RefundAmount: input.RefundAmount,
	})
	if err != nil {
		switch {
		case errors.Is(err, dispute.ErrDisputeNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, dispute.ErrAlreadyResolved), errors.Is(err, dispute.ErrInvalidResolution):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, dispute.ErrDataInconsistency):
			return response.Error(c, fiber.StatusConflict, err.Error())
		}
		return response.ServerError(c, "Failed to resolve dispute")
	}

	return response.Success(c, "Dispute resolved", d)
}
