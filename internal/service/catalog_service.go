package service

import (
	"context"
	"strconv"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/catalog"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/repository"
)

// FoodQuery selects and orders foods. CategoryID 0 means every category.
type FoodQuery struct {
	CategoryID int64
	Sort       catalog.SortKey
}

// CatalogService handles business logic for the menu
type CatalogService struct {
	repo repository.CatalogRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
	}
}

// ListCategories returns all active categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.Categories(ctx)
}

// ListFoods returns active foods matching q, using the same filter engine
// as the storefront
func (s *CatalogService) ListFoods(ctx context.Context, q FoodQuery) ([]models.FoodItem, error) {
	foods, err := s.repo.Foods(ctx)
	if err != nil {
		return nil, err
	}

	criteria := catalog.Criteria{Category: catalog.AllCategories, Sort: q.Sort}
	if q.CategoryID != 0 {
		criteria.Category = strconv.FormatInt(q.CategoryID, 10)
	}
	return catalog.Filter(foods, criteria), nil
}

// GetFood returns a food by ID
func (s *CatalogService) GetFood(ctx context.Context, id int64) (*models.FoodItem, error) {
	return s.repo.FoodByID(ctx, id)
}
