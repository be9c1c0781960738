// Package apiclient talks to the catalog API on behalf of the storefront.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
)

var (
	ErrPromoRejected = errors.New("promo code not found or expired")
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Message)
}

// Client fetches categories, foods and promo validations.
// Every request carries the init data as the init_data query parameter.
type Client struct {
	baseURL  string
	initData string
	http     *http.Client
}

// New creates a Client for the API rooted at baseURL
func New(baseURL, initData string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		initData: initData,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Categories returns every active category
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.get(ctx, "/api/categories", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return out, nil
}

// Foods returns every active food item in catalog order
func (c *Client) Foods(ctx context.Context) ([]models.FoodItem, error) {
	var out []models.FoodItem
	if err := c.get(ctx, "/api/foods", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch foods: %w", err)
	}
	return out, nil
}

// ValidatePromo checks a code; unknown or expired codes yield ErrPromoRejected
func (c *Client) ValidatePromo(ctx context.Context, code string) (*models.PromoResult, error) {
	var out models.PromoResult
	err := c.get(ctx, "/api/promo/validate", url.Values{"code": {code}}, &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, ErrPromoRejected
		}
		return nil, fmt.Errorf("failed to validate promo: %w", err)
	}
	return &out, nil
}

// URL builds an absolute endpoint URL with init_data appended
func (c *Client) URL(path string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("init_data", c.initData)
	return c.baseURL + path + "?" + q.Encode()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path, query), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
