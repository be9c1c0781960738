package models

import "time"

// Promo is a percentage discount definition held by the API server
type Promo struct {
	Code            string     `json:"code"`
	DiscountPercent float64    `json:"discount_percent"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	UsageLimit      int        `json:"usage_limit,omitempty"`
	UsedCount       int        `json:"used_count"`
	IsActive        bool       `json:"is_active"`
}

// PromoResult is returned by the promo validation endpoint
type PromoResult struct {
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discount_percent"`
}
