package repository

import (
	"context"
	"errors"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
)

var (
	ErrFoodNotFound = errors.New("food not found")
)

// CatalogRepository defines the interface for catalog data access
type CatalogRepository interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Foods(ctx context.Context) ([]models.FoodItem, error)
	FoodByID(ctx context.Context, id int64) (*models.FoodItem, error)
}

// InMemoryCatalogRepository implements CatalogRepository with in-memory storage.
// Only active categories and foods are stored.
type InMemoryCatalogRepository struct {
	categories []models.Category
	foods      []models.FoodItem
	byID       map[int64]int
}

// NewInMemoryCatalogRepository creates a catalog repository with the shop menu
func NewInMemoryCatalogRepository() *InMemoryCatalogRepository {
	return NewCatalogRepository(seedCategories(), seedFoods())
}

// NewCatalogRepository creates a catalog repository over the given items,
// kept in the given order
func NewCatalogRepository(categories []models.Category, foods []models.FoodItem) *InMemoryCatalogRepository {
	r := &InMemoryCatalogRepository{
		categories: append([]models.Category(nil), categories...),
		foods:      append([]models.FoodItem(nil), foods...),
		byID:       make(map[int64]int, len(foods)),
	}
	for i, f := range r.foods {
		r.byID[f.ID] = i
	}
	return r
}

// Categories returns all categories
func (r *InMemoryCatalogRepository) Categories(ctx context.Context) ([]models.Category, error) {
	return append([]models.Category(nil), r.categories...), nil
}

// Foods returns all foods in catalog order
func (r *InMemoryCatalogRepository) Foods(ctx context.Context) ([]models.FoodItem, error) {
	return append([]models.FoodItem(nil), r.foods...), nil
}

// FoodByID returns a food by its ID
func (r *InMemoryCatalogRepository) FoodByID(ctx context.Context, id int64) (*models.FoodItem, error) {
	i, exists := r.byID[id]
	if !exists {
		return nil, ErrFoodNotFound
	}
	food := r.foods[i]
	return &food, nil
}

func seedCategories() []models.Category {
	return []models.Category{
		{ID: 1, Name: "Lavash"},
		{ID: 2, Name: "Burger"},
		{ID: 3, Name: "Xaggi"},
		{ID: 4, Name: "Shaurma"},
		{ID: 5, Name: "Hotdog"},
		{ID: 6, Name: "Combo"},
		{ID: 7, Name: "Sneki"},
		{ID: 8, Name: "Sous"},
		{ID: 9, Name: "Napitki"},
	}
}

func seedFoods() []models.FoodItem {
	return []models.FoodItem{
		{ID: 1, CategoryID: 1, Name: "Lavash Classic", Description: "Klassik lavash tovuq va sabzavotlar bilan", Price: 18000, Rating: 4.8},
		{ID: 2, CategoryID: 1, Name: "Lavash Spicy", Description: "Achchiq lavash mol go'shti va chili sous bilan", Price: 22000, Rating: 4.9, IsNew: true},
		{ID: 3, CategoryID: 1, Name: "Lavash Mix", Description: "Ikki xil go'sht bilan aralash lavash", Price: 25000, Rating: 4.7},
		{ID: 4, CategoryID: 2, Name: "Classic Burger", Description: "Klassik burger mol go'shti kotletasi bilan", Price: 28000, Rating: 4.6},
		{ID: 5, CategoryID: 2, Name: "Chicken Burger", Description: "Tovuq filesi bilan burger", Price: 24000, Rating: 4.7},
		{ID: 6, CategoryID: 2, Name: "Double Burger", Description: "Ikki kotleta, ikki pishloq", Price: 35000, Rating: 4.9, IsNew: true},
		{ID: 7, CategoryID: 4, Name: "Shaurma Classic", Description: "Tovuq, sabzavot va sous bilan shaurma", Price: 20000, Rating: 4.8},
		{ID: 8, CategoryID: 4, Name: "Shaurma XL", Description: "Ikki porsiya go'sht bilan katta shaurma", Price: 30000, Rating: 4.9, IsNew: true},
		{ID: 9, CategoryID: 4, Name: "Shaurma BBQ", Description: "BBQ sous va mol go'shti bilan shaurma", Price: 26000, Rating: 4.7},
		{ID: 10, CategoryID: 5, Name: "Classic Hotdog", Description: "Klassik hotdog sosiska bilan", Price: 14000, Rating: 4.5},
		{ID: 11, CategoryID: 5, Name: "Cheese Hotdog", Description: "Pishloq va xantal bilan hotdog", Price: 17000, Rating: 4.6},
		{ID: 12, CategoryID: 5, Name: "Mega Hotdog", Description: "Ikki sosiska bilan katta hotdog", Price: 22000, Rating: 4.7, IsNew: true},
		{ID: 13, CategoryID: 6, Name: "Combo 1", Description: "Shaurma + kartoshka + ichimlik", Price: 45000, Rating: 4.9},
		{ID: 14, CategoryID: 6, Name: "Combo 2", Description: "Burger + kartoshka + ichimlik", Price: 50000, Rating: 4.8, IsNew: true},
		{ID: 15, CategoryID: 6, Name: "Family Combo", Description: "2 shaurma + 2 ichimlik + snek", Price: 85000, Rating: 5.0, IsNew: true},
		{ID: 16, CategoryID: 7, Name: "Kartoshka fri", Description: "Qarsildoq kartoshka fri", Price: 12000, Rating: 4.7},
		{ID: 17, CategoryID: 7, Name: "Piyoz halqalari", Description: "Qarsildoq xamirda piyoz halqalari", Price: 14000, Rating: 4.6},
		{ID: 18, CategoryID: 7, Name: "Naggetsy", Description: "10 dona tovuq naggetslar", Price: 18000, Rating: 4.8},
		{ID: 19, CategoryID: 8, Name: "Ketchup", Description: "Klassik tomat ketchup", Price: 3000, Rating: 4.5},
		{ID: 20, CategoryID: 8, Name: "Mayonez", Description: "Klassik mayonez", Price: 3000, Rating: 4.5},
		{ID: 21, CategoryID: 8, Name: "Chili sous", Description: "Achchiq chili sous", Price: 4000, Rating: 4.7},
		{ID: 22, CategoryID: 9, Name: "Coca-Cola 0.5", Description: "Koka-kola 0.5 litr", Price: 8000, Rating: 4.8},
		{ID: 23, CategoryID: 9, Name: "Fanta 0.5", Description: "Fanta apelsin 0.5 litr", Price: 8000, Rating: 4.6},
		{ID: 24, CategoryID: 9, Name: "Suv 0.5", Description: "Mineral suv gazsiz", Price: 5000, Rating: 4.5},
	}
}
