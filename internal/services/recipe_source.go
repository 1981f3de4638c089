package services

import (
	"context"

	"github.com/ad/go-telegram-recipes/internal/models"
)

// RecipeSource is the content catalog. Every call may fail with ErrNetwork
// or ErrEmptyResult.
type RecipeSource interface {
	ListCategories(ctx context.Context) ([]string, error)
	ListCuisines(ctx context.Context) ([]string, error)
	ListByCategory(ctx context.Context, category string) ([]models.RecipeRef, error)
	ListByCuisine(ctx context.Context, cuisine string) ([]models.RecipeRef, error)
	SearchByName(ctx context.Context, query string) ([]models.RecipeRef, error)
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	GetRandom(ctx context.Context) (*models.Recipe, error)
}
