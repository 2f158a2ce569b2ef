package shipstation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/loganlanou/shipstation-rates/internal/shipping"
)

const DefaultBaseURL = "https://api.shipstation.com"

// Client is a ShipStation v2 RateProvider.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	metrics *Metrics
	logger  *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "shipstation",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx responses do not count against the breaker.
		IsSuccessful: func(err error) bool {
			var perr *shipping.ProviderError
			if errors.As(err, &perr) && perr.Status >= 400 && perr.Status < 500 {
				return true
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return c
}

type amount struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// estimate is one entry of the /v2/rates/estimate response.
type estimate struct {
	RateType            string   `json:"rate_type"`
	CarrierID           string   `json:"carrier_id"`
	CarrierCode         string   `json:"carrier_code"`
	CarrierNickname     string   `json:"carrier_nickname"`
	CarrierFriendlyName string   `json:"carrier_friendly_name"`
	ServiceType         string   `json:"service_type"`
	ServiceCode         string   `json:"service_code"`
	PackageType         string   `json:"package_type"`
	ShippingAmount      amount   `json:"shipping_amount"`
	InsuranceAmount     amount   `json:"insurance_amount"`
	ConfirmationAmount  amount   `json:"confirmation_amount"`
	OtherAmount         amount   `json:"other_amount"`
	DeliveryDays        int      `json:"delivery_days"`
	ValidationStatus    string   `json:"validation_status"`
	WarningMessages     []string `json:"warning_messages"`
	ErrorMessages       []string `json:"error_messages"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"error_code,omitempty"`
	Type    string `json:"error_type,omitempty"`
}

type errorResponse struct {
	RequestID string     `json:"request_id"`
	Errors    []apiError `json:"errors"`
}

func (c *Client) makeRequest(ctx context.Context, op, method, endpoint string, body, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.do(ctx, op, method, endpoint, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WarnContext(ctx, "ShipStation: circuit breaker rejected request", "op", op)
		return &shipping.ProviderError{Op: op, Err: err}
	}
	return err
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.observe(op, 0, time.Since(start))
		return &shipping.ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.observe(op, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &shipping.ProviderError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &shipping.ProviderError{Op: op, Status: resp.StatusCode, Err: apiErrorMessage(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &shipping.ProviderError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func apiErrorMessage(body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && len(er.Errors) > 0 {
		return errors.New(er.Errors[0].Message)
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Errorf("unexpected response: %s", body)
}

func (c *Client) GetEstimates(ctx context.Context, req shipping.EstimateRequest) ([]shipping.CarrierRate, error) {
	var estimates []estimate
	if err := c.makeRequest(ctx, "estimate", http.MethodPost, "/v2/rates/estimate", req, &estimates); err != nil {
		return nil, err
	}

	rates := make([]shipping.CarrierRate, 0, len(estimates))
	for _, e := range estimates {
		carrierName := e.CarrierFriendlyName
		if carrierName == "" {
			carrierName = e.CarrierNickname
		}
		rate := shipping.CarrierRate{
			ServiceName:   e.ServiceType,
			ServiceCode:   e.ServiceCode,
			Cost:          e.ShippingAmount.Amount,
			Currency:      e.ShippingAmount.Currency,
			CarrierID:     e.CarrierID,
			CarrierCode:   e.CarrierCode,
			CarrierName:   carrierName,
			PackageType:   e.PackageType,
			DeliveryDays:  e.DeliveryDays,
			ErrorMessages: e.ErrorMessages,
		}
		for _, extra := range []struct {
			slug   string
			amount amount
		}{
			{"insurance", e.InsuranceAmount},
			{"confirmation", e.ConfirmationAmount},
			{"other", e.OtherAmount},
		} {
			if !extra.amount.Amount.IsZero() {
				rate.OtherCosts = append(rate.OtherCosts, shipping.OtherCost{Slug: extra.slug, Amount: extra.amount.Amount})
			}
		}
		rates = append(rates, rate)
	}

	c.logger.DebugContext(ctx, "ShipStation: received estimates",
		"count", len(rates),
		"carriers", req.CarrierIDs,
		"to_postal", req.ToPostalCode)

	return rates, nil
}

func (c *Client) GetCarrier(ctx context.Context, carrierID string) (*shipping.Carrier, error) {
	var carrier shipping.Carrier
	endpoint := "/v2/carriers/" + url.PathEscape(carrierID)
	if err := c.makeRequest(ctx, "carrier", http.MethodGet, endpoint, nil, &carrier); err != nil {
		return nil, err
	}
	return &carrier, nil
}

func (c *Client) GetWarehouse(ctx context.Context, warehouseID string) (*shipping.Warehouse, error) {
	var warehouse shipping.Warehouse
	endpoint := "/v2/warehouses/" + url.PathEscape(warehouseID)
	if err := c.makeRequest(ctx, "warehouse", http.MethodGet, endpoint, nil, &warehouse); err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (c *Client) ConvertUnitTerm(unit string) string {
	return shipping.UnitTerm(unit)
}
