package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/config"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/middleware"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/repository"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/service"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/telegram"
	"github.com/Lixing-Zhang/fiesta-storefront/pkg/logger"
)

const testBotToken = "123456:TEST-TOKEN"

const testAdminID = 1

func newOrderRouter() http.Handler {
	log := logger.New("error")
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	orderService := service.NewOrderService(
		repository.NewInMemoryCatalogRepository(),
		repository.NewInMemoryOrderRepository(),
		newPromoStore(),
	)
	handler := NewOrderHandler(orderService, log)

	r := chi.NewRouter()
	r.Use(middleware.InitDataAuth(config.AuthConfig{BotToken: testBotToken, InitDataMaxAge: time.Hour}, quiet))
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(quiet))
		r.Post("/api/webapp/order", handler.CreateOrder)
		r.Get("/api/webapp/order/{orderId}", handler.GetOrder)
	})
	r.With(middleware.RequireAdmin([]int64{testAdminID}, quiet)).
		Post("/api/admin/orders/{orderId}/status", handler.UpdateStatus)
	return r
}

func signedInitData(userID int64) string {
	values := url.Values{}
	user, _ := json.Marshal(telegram.User{ID: userID, FirstName: "Aziz"})
	values.Set("user", string(user))
	return url.Values{middleware.InitDataParam: {telegram.Sign(values, testBotToken)}}.Encode()
}

func orderPayload() models.OrderPayload {
	promoCode := "FIESTA10"
	return models.OrderPayload{
		Type: models.OrderTypeCreate,
		Items: []models.OrderLine{
			{FoodID: 13, Name: "Combo 1", Qty: 1, Price: 45000},
			{FoodID: 19, Name: "Ketchup", Qty: 5, Price: 3000},
		},
		Total:        54000,
		CustomerName: "Aziz",
		Phone:        "+998901234567",
		Location:     &models.Location{Lat: 41.31, Lng: 69.28},
		PromoCode:    &promoCode,
	}
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(*testing.T, *models.Order)
	}{
		{
			name:           "successful order",
			requestBody:    orderPayload(),
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, order *models.Order) {
				if order.ID == "" {
					t.Error("order ID is empty")
				}
				if order.Number == "" {
					t.Error("order number is empty")
				}
				if order.Status != models.OrderStatusNew {
					t.Errorf("expected status NEW, got %s", order.Status)
				}
				if order.PromoCode != "FIESTA10" {
					t.Errorf("expected promo FIESTA10, got %q", order.PromoCode)
				}
				if order.UserID != 42 {
					t.Errorf("expected user 42, got %d", order.UserID)
				}
			},
		},
		{
			name: "below minimum",
			requestBody: func() models.OrderPayload {
				p := orderPayload()
				p.Items = p.Items[:1]
				p.Total = 40500
				return p
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "empty order",
			requestBody: func() models.OrderPayload {
				p := orderPayload()
				p.Items = []models.OrderLine{}
				return p
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing location",
			requestBody: func() models.OrderPayload {
				p := orderPayload()
				p.Location = nil
				return p
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "expired promo",
			requestBody: func() models.OrderPayload {
				p := orderPayload()
				code := "OLD"
				p.PromoCode = &code
				return p
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid product",
			requestBody: func() models.OrderPayload {
				p := orderPayload()
				p.Items[0].FoodID = 99999
				return p
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "total without discount",
			requestBody: func() models.OrderPayload {
				p := orderPayload()
				p.Total = 60000
				return p
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "zero total",
			requestBody: func() models.OrderPayload {
				p := orderPayload()
				p.PromoCode = nil
				p.Total = 0
				return p
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "quantity above cap",
			requestBody: func() models.OrderPayload {
				p := orderPayload()
				p.Items[1].Qty = 6148914691236538
				p.Total = 50000
				return p
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newOrderRouter()

			var body []byte
			var err error

			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatalf("failed to marshal request: %v", err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/webapp/order?"+signedInitData(42), bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.expectedStatus, w.Body.String())
			}

			if tt.expectedStatus == http.StatusCreated && tt.checkResponse != nil {
				var order models.Order
				if err := json.NewDecoder(w.Body).Decode(&order); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				tt.checkResponse(t, &order)
			}
		})
	}
}

func TestOrderHandler_GetOrder(t *testing.T) {
	router := newOrderRouter()

	body, _ := json.Marshal(orderPayload())
	req := httptest.NewRequest(http.MethodPost, "/api/webapp/order?"+signedInitData(42), bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create order: %d %s", w.Code, w.Body.String())
	}

	var created models.Order
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{
			name:           "owner",
			path:           "/api/webapp/order/" + created.ID + "?" + signedInitData(42),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "other user",
			path:           "/api/webapp/order/" + created.ID + "?" + signedInitData(7),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "anonymous",
			path:           "/api/webapp/order/" + created.ID,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "unknown order",
			path:           "/api/webapp/order/missing?" + signedInitData(42),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestOrderHandler_CreateOrder_RequiresUser(t *testing.T) {
	router := newOrderRouter()
	body, _ := json.Marshal(orderPayload())

	noUser := url.Values{middleware.InitDataParam: {telegram.Sign(url.Values{"query_id": {"AAH"}}, testBotToken)}}.Encode()
	for name, query := range map[string]string{"no init data": "", "init data without user": "?" + noUser} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/webapp/order"+query, bytes.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
			}
		})
	}
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	router := newOrderRouter()

	body, _ := json.Marshal(orderPayload())
	req := httptest.NewRequest(http.MethodPost, "/api/webapp/order?"+signedInitData(42), bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create order: %d %s", w.Code, w.Body.String())
	}
	var created models.Order
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	tests := []struct {
		name           string
		orderID        string
		status         string
		userID         int64
		expectedStatus int
		expectedOrder  models.OrderStatus
	}{
		{"customer is not an admin", created.ID, "CONFIRMED", 42, http.StatusForbidden, ""},
		{"confirm", created.ID, "CONFIRMED", testAdminID, http.StatusOK, models.OrderStatusConfirmed},
		{"skip to delivered", created.ID, "DELIVERED", testAdminID, http.StatusConflict, ""},
		{"unknown status", created.ID, "LOST", testAdminID, http.StatusBadRequest, ""},
		{"unknown order", "missing", "CONFIRMED", testAdminID, http.StatusNotFound, ""},
		{"cancel", created.ID, "CANCELED", testAdminID, http.StatusOK, models.OrderStatusCanceled},
		{"canceled is final", created.ID, "COOKING", testAdminID, http.StatusConflict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte(`{"status":"` + tt.status + `"}`)
			path := "/api/admin/orders/" + tt.orderID + "/status?" + signedInitData(tt.userID)
			req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedOrder != "" {
				var order models.Order
				if err := json.NewDecoder(w.Body).Decode(&order); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if order.Status != tt.expectedOrder {
					t.Errorf("order status = %s, want %s", order.Status, tt.expectedOrder)
				}
			}
		})
	}
}
