package handlers

import (
	"blizz/internal/models"
	"blizz/internal/repositories"
	"blizz/internal/utils/response"
	"blizz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PostHandler struct {
	posts repositories.PostRepository
}

func NewPostHandler(posts repositories.PostRepository) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	var input struct {
		Title       string  `json:"title" validate:"required,min=3"`
		Description string  `json:"description"`
		GameType    string  `json:"game_type"`
		Price       float64 `json:"price" validate:"required,gt=0"`
		Currency    string  `json:"currency" validate:"omitempty,len=3"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	claims := c.Locals("claims").(*models.UserClaims)
	post := &models.Post{
		SellerID:    claims.UserID,
		Title:       input.Title,
		Description: input.Description,
		GameType:    input.GameType,
		Price:       input.Price,
		Currency:    input.Currency,
		IsOnSale:    true,
	}
	if post.Currency == "" {
		post.Currency = "EUR"
	}
	if post.GameType == "" {
		post.GameType = "other"
	}
	if err := h.posts.Create(post); err != nil {
		return response.ServerError(c, "Failed to create post")
	}

	return response.Success(c, "Post created", post)
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid post id")
	}

	post, err := h.posts.FindByID(postID)
	if err != nil {
		return response.NotFound(c, "Post not found")
	}

	return response.Success(c, "Post retrieved", post)
}
