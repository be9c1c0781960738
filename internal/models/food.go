package models

// Category groups food items on the storefront
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FoodItem represents a purchasable food entry
// Price is in whole currency units (sum), rating is 0-5
type FoodItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       int64   `json:"price"`
	Rating      float64 `json:"rating"`
	CategoryID  int64   `json:"category_id"`
	ImageURL    string  `json:"image_url,omitempty"`
	IsNew       bool    `json:"is_new"`
}
