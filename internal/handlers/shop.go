package handlers

import (
	"errors"

	"blizz/internal/models"
	"blizz/internal/services/shop"
	"blizz/internal/utils/response"
	"blizz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ShopHandler struct {
	shopService *shop.Service
}

func NewShopHandler(shopService *shop.Service) *ShopHandler {
	return &ShopHandler{shopService: shopService}
}

func (h *ShopHandler) Checkout(c *fiber.Ctx) error {
	var input struct {
		Items []struct {
			ProductID string `json:"product_id" validate:"required"`
			Quantity  int    `json:"quantity" validate:"required,gt=0"`
		} `json:"items" validate:"required,min=1,dive"`
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name" validate:"required"`
		Email     string `json:"email" validate:"required,email"`
		Phone     string `json:"phone" validate:"required"`
		City      string `json:"city"`
		Country   string `json:"country" validate:"required,len=2"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	items := make([]shop.CheckoutItem, len(input.Items))
	for i, item := range input.Items {
		items[i] = shop.CheckoutItem{ProductExternalID: item.ProductID, Quantity: item.Quantity}
	}

	var userID *uint
	if claims, ok := c.Locals("claims").(*models.UserClaims); ok {
		userID = &claims.UserID
	}

	order, charge, err := h.shopService.Checkout(c.Context(), userID, shop.CheckoutInput{
		Items:     items,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		City:      input.City,
		Country:   input.Country,
	})
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrEmptyOrder),
			errors.Is(err, shop.ErrInvalidQuantity),
			errors.Is(err, shop.ErrProductNotFound),
			errors.Is(err, shop.ErrProductInactive):
			return response.BadRequest(c, err.Error())
		}
		return response.Error(c, fiber.StatusBadGateway, "Checkout failed")
	}

	return response.Success(c, "Order created", fiber.Map{
		"order_number": order.OrderNumber,
		"order_id":     order.ID,
		"total":        order.TotalAmount,
		"currency":     order.Currency,
		"payment_url":  charge.PaymentURL,
		"gateway_ref":  charge.GatewayRef,
	})
}

func (h *ShopHandler) GetOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid order id")
	}

	order, err := h.shopService.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, shop.ErrOrderNotFound) {
			return response.NotFound(c, err.Error())
		}
		return response.ServerError(c, "Failed to retrieve order")
	}

	return response.Success(c, "Order retrieved", order)
}
