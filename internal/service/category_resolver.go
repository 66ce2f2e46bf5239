package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// CategoryResolver maps (name, type) to a category id, creating the category
// on first reference.
type CategoryResolver struct {
	categoryRepo domain.CategoryRepository
}

// NewCategoryResolver creates a new CategoryResolver
func NewCategoryResolver(categoryRepo domain.CategoryRepository) *CategoryResolver {
	return &CategoryResolver{categoryRepo: categoryRepo}
}

// Resolve returns the id of the category named name with the given type
func (r *CategoryResolver) Resolve(ctx context.Context, name string, categoryType domain.CategoryType) (int32, error) {
	category, _, err := r.Ensure(ctx, name, categoryType)
	if err != nil {
		return 0, err
	}
	return category.ID, nil
}

// Ensure returns the category for (name, type), creating it on first
// reference. created is false when the category already existed.
// Concurrent callers may race on the insert; the loser re-reads the row the
// winner created, so the unique constraint is the only synchronization.
func (r *CategoryResolver) Ensure(ctx context.Context, name string, categoryType domain.CategoryType) (category *domain.Category, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, domain.ErrCategoryNameRequired
	}
	if len([]rune(name)) > domain.MaxCategoryNameLength {
		return nil, false, domain.ErrCategoryNameTooLong
	}
	if !categoryType.IsValid() {
		return nil, false, domain.ErrInvalidCategoryType
	}

	existing, err := r.categoryRepo.GetByNameAndType(ctx, name, categoryType)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, false, fmt.Errorf("failed to look up category: %w", err)
	}

	category, err = r.categoryRepo.Create(ctx, &domain.Category{Name: name, Type: categoryType})
	if err == nil {
		log.Info().
			Int32("category_id", category.ID).
			Str("name", category.Name).
			Str("type", string(category.Type)).
			Msg("Created category")
		return category, true, nil
	}
	if !errors.Is(err, domain.ErrCategoryAlreadyExists) {
		return nil, false, fmt.Errorf("failed to create category: %w", err)
	}

	log.Debug().Str("name", name).Str("type", string(categoryType)).Msg("Category created concurrently, re-reading")
	existing, err = r.categoryRepo.GetByNameAndType(ctx, name, categoryType)
	if err != nil {
		return nil, false, fmt.Errorf("failed to re-read category after conflict: %w", err)
	}
	return existing, false, nil
}
