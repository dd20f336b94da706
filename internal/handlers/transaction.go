package handlers

import (
	"errors"
	"strconv"

	"blizz/internal/models"
	"blizz/internal/services/currency"
	"blizz/internal/services/transaction"
	"blizz/internal/utils/response"
	"blizz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxTransactionLimit = 100

type TransactionHandler struct {
	txService *transaction.Service
	currency  *currency.Service
}

func NewTransactionHandler(txService *transaction.Service, converter *currency.Service) *TransactionHandler {
	return &TransactionHandler{txService: txService, currency: converter}
}

func (h *TransactionHandler) CreatePurchase(c *fiber.Ctx) error {
	var input struct {
		PostID string `json:"post_id" validate:"required,uuid4"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}
	postID, err := uuid.Parse(input.PostID)
	if err != nil {
		return response.BadRequest(c, "Invalid post id")
	}

	claims := c.Locals("claims").(*models.UserClaims)
	tx, err := h.txService.CreatePurchase(claims.UserID, postID)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrPostNotAvailable), errors.Is(err, transaction.ErrSelfPurchase):
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "Failed to create transaction")
	}

	return response.Success(c, "Transaction created", tx)
}

func (h *TransactionHandler) InitiatePayment(c *fiber.Ctx) error {
	txID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid transaction id")
	}

	var input struct {
		Name        string `json:"name" validate:"required"`
		Surname     string `json:"surname" validate:"required"`
		PhoneNumber string `json:"phone_number" validate:"required"`
		Email       string `json:"email" validate:"required,email"`
		Country     string `json:"country" validate:"required,len=2"`
		City        string `json:"city"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	claims := c.Locals("claims").(*models.UserClaims)
	charge, err := h.txService.InitiatePayment(c.Context(), txID, claims.UserID, transaction.CustomerInfo{
		Name:        input.Name,
		Surname:     input.Surname,
		PhoneNumber: input.PhoneNumber,
		Email:       input.Email,
		Country:     input.Country,
		City:        input.City,
	})
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrTransactionNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, transaction.ErrNotBuyer):
			return response.Forbidden(c, err.Error())
		case errors.Is(err, transaction.ErrInvalidTransition), errors.Is(err, transaction.ErrChargeSettled):
			return response.BadRequest(c, err.Error())
		}
		return response.Error(c, fiber.StatusBadGateway, "Payment initiation failed")
	}

	return response.Success(c, "Payment initiated", fiber.Map{
		"charge_id":   charge.ID,
		"gateway_ref": charge.GatewayRef,
		"payment_url": charge.PaymentURL,
		"amount":      charge.Amount,
		"currency":    charge.Currency,
	})
}

func (h *TransactionHandler) ConfirmReception(c *fiber.Ctx) error {
	txID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid transaction id")
	}

	claims := c.Locals("claims").(*models.UserClaims)
	tx, err := h.txService.ConfirmReception(txID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrTransactionNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, transaction.ErrNotBuyer):
			return response.Forbidden(c, err.Error())
		case errors.Is(err, transaction.ErrInvalidTransition):
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "Failed to confirm reception")
	}

	return response.Success(c, "Transaction completed", tx)
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	txID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid transaction id")
	}

	claims := c.Locals("claims").(*models.UserClaims)
	tx, err := h.txService.Get(txID, claims.UserID, claims.IsAdmin())
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrTransactionNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, transaction.ErrNotParty):
			return response.Forbidden(c, err.Error())
		}
		return response.ServerError(c, "Failed to retrieve transaction")
	}

	// The amount can be shown in the viewer's currency without touching
	// the stored one.
	displayCurrency := c.Query("currency", tx.Currency)
	amount, formatted := h.currency.Display(c.Context(), tx.Amount, tx.Currency, displayCurrency)

	return response.Success(c, "Transaction retrieved", fiber.Map{
		"transaction": tx,
		"display": fiber.Map{
			"amount":    amount,
			"currency":  displayCurrency,
			"formatted": formatted,
		},
	})
}

func (h *TransactionHandler) List(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	txs, err := h.txService.ListForUser(claims.UserID, limit, offset)
	if err != nil {
		return response.ServerError(c, "Failed to retrieve transactions")
	}

	return c.JSON(fiber.Map{
		"transactions": txs,
		"page":         page,
		"limit":        limit,
		"total":        len(txs),
	})
}

// Cancel is the admin void path for deals money never settled on.
func (h *TransactionHandler) Cancel(c *fiber.Ctx) error {
	txID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid transaction id")
	}

	tx, err := h.txService.Cancel(txID)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrTransactionNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, transaction.ErrInvalidTransition), errors.Is(err, transaction.ErrChargeSettled):
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "Failed to cancel transaction")
	}

	return response.Success(c, "Transaction cancelled", tx)
}
