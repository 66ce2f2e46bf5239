package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/dafibh/fintrack/fintrack-backend/internal/middleware"
	"github.com/dafibh/fintrack/fintrack-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	resolver *service.CategoryResolver
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(resolver *service.CategoryResolver) *CategoryHandler {
	return &CategoryHandler{resolver: resolver}
}

// CreateCategoryRequest represents the create category request body
type CreateCategoryRequest struct {
	Name string `json:"name" example:"Food"`
	Type string `json:"type" example:"EXPENSE"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	CreatedAt string `json:"createdAt"`
}

// CreateCategory godoc
// @Summary Create a category
// @Description Returns the category with this name and type, creating it when it does not exist yet.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "Category"
// @Success 200 {object} CategoryResponse "Already existed"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	categoryType, err := domain.ParseCategoryType(req.Type)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: err.Error()},
		})
	}

	category, created, err := h.resolver.Ensure(c.Request().Context(), req.Name, categoryType)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNameRequired) || errors.Is(err, domain.ErrCategoryNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: err.Error()},
			})
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to create category")
		return NewInternalError(c, "Failed to create category")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, toCategoryResponse(category))
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Type:      string(category.Type),
		CreatedAt: category.CreatedAt.UTC().Format(time.RFC3339),
	}
}
