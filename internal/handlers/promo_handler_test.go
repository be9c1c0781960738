package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/promo"
	"github.com/Lixing-Zhang/fiesta-storefront/pkg/logger"
)

func newPromoStore() *promo.Store {
	expired := time.Now().Add(-24 * time.Hour)
	store := promo.NewStore()
	store.Seed([]models.Promo{
		{Code: "FIESTA10", DiscountPercent: 10, IsActive: true},
		{Code: "OLD", DiscountPercent: 20, ExpiresAt: &expired, IsActive: true},
		{Code: "OFF", DiscountPercent: 20},
	})
	return store
}

func TestPromoHandler_ValidatePromo(t *testing.T) {
	handler := NewPromoHandler(newPromoStore(), logger.New("error"))

	tests := []struct {
		name            string
		code            string
		expectedStatus  int
		expectedPercent float64
	}{
		{
			name:            "valid code",
			code:            "FIESTA10",
			expectedStatus:  http.StatusOK,
			expectedPercent: 10,
		},
		{
			name:            "lowercase code",
			code:            "fiesta10",
			expectedStatus:  http.StatusOK,
			expectedPercent: 10,
		},
		{
			name:           "expired code",
			code:           "OLD",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "inactive code",
			code:           "OFF",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unknown code",
			code:           "NOTEXIST",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing code",
			code:           "",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/promo/validate?code="+tt.code, nil)
			w := httptest.NewRecorder()

			handler.ValidatePromo(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			switch tt.expectedStatus {
			case http.StatusOK:
				var result models.PromoResult
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if result.Code != "FIESTA10" || result.DiscountPercent != tt.expectedPercent {
					t.Errorf("unexpected result %+v", result)
				}
			case http.StatusNotFound:
				var body map[string]string
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if body["error"] != "promo code not found or expired" {
					t.Errorf("unexpected error message %q", body["error"])
				}
			}
		})
	}
}

func TestPromoHandler_GetStats(t *testing.T) {
	handler := NewPromoHandler(newPromoStore(), logger.New("error"))

	req := httptest.NewRequest(http.MethodGet, "/api/promo/stats", nil)
	w := httptest.NewRecorder()

	handler.GetStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var stats map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats["total_promos"] != float64(3) {
		t.Errorf("expected 3 promos, got %v", stats["total_promos"])
	}
	if stats["usable_promos"] != float64(1) {
		t.Errorf("expected 1 usable promo, got %v", stats["usable_promos"])
	}
}

func TestPromoHandler_CreatePromo(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		checkResponse  func(*testing.T, models.Promo)
	}{
		{
			name:           "explicit code",
			body:           `{"code":"summer25","discount_percent":25,"usage_limit":10}`,
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, p models.Promo) {
				if p.Code != "SUMMER25" || p.UsageLimit != 10 || !p.IsActive {
					t.Errorf("unexpected promo %+v", p)
				}
			},
		},
		{
			name:           "generated code",
			body:           `{"discount_percent":5,"expires_at":"2099-01-01T00:00:00Z"}`,
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, p models.Promo) {
				if len(p.Code) != 8 {
					t.Errorf("expected generated 8 char code, got %q", p.Code)
				}
				if p.ExpiresAt == nil {
					t.Error("expected expires_at to be kept")
				}
			},
		},
		{
			name:           "duplicate code",
			body:           `{"code":"FIESTA10","discount_percent":10}`,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "bad percent",
			body:           `{"code":"BIG","discount_percent":150}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newPromoStore()
			handler := NewPromoHandler(store, logger.New("error"))

			req := httptest.NewRequest(http.MethodPost, "/api/admin/promos", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.CreatePromo(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.checkResponse == nil {
				return
			}

			var created models.Promo
			if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			tt.checkResponse(t, created)

			if _, err := store.Validate(req.Context(), created.Code); err != nil {
				t.Errorf("created promo does not validate: %v", err)
			}
		})
	}
}

func TestPromoHandler_ListPromos(t *testing.T) {
	handler := NewPromoHandler(newPromoStore(), logger.New("error"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/promos", nil)
	w := httptest.NewRecorder()

	handler.ListPromos(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var promos []models.Promo
	if err := json.NewDecoder(w.Body).Decode(&promos); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(promos) != 3 || promos[0].Code != "FIESTA10" {
		t.Errorf("unexpected promos %+v", promos)
	}
}
