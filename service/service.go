package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loganlanou/shipstation-rates/internal/shipping"
	"github.com/loganlanou/shipstation-rates/storage"
)

type Service struct {
	storage    *storage.Storage
	config     *Config
	provider   shipping.RateProvider
	calculator *shipping.Host
	registry   *prometheus.Registry
	validate   *validator.Validate
	logger     *slog.Logger
}

type Option func(*options)

type options struct {
	override shipping.Override
	filter   shipping.PackageFilter
	logger   *slog.Logger
}

// WithCalculatorOverride lets an embedding application substitute the
// calculator serving rate requests.
func WithCalculatorOverride(override shipping.Override) Option {
	return func(o *options) {
		o.override = override
	}
}

// WithPackageFilter installs a hook that may rewrite the package list
// before rates are requested.
func WithPackageFilter(filter shipping.PackageFilter) Option {
	return func(o *options) {
		o.filter = filter
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func New(store *storage.Storage, config *Config, provider shipping.RateProvider, registry *prometheus.Registry, opts ...Option) *Service {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if registry == nil {
		registry = NewRegistry()
	}

	calcOpts := []shipping.CalculatorOption{shipping.WithLogger(o.logger)}
	if o.filter != nil {
		calcOpts = append(calcOpts, shipping.WithPackageFilter(o.filter))
	}
	calculator := shipping.NewCalculator(provider, store, store, calcOpts...)

	return &Service{
		storage:    store,
		config:     config,
		provider:   provider,
		calculator: shipping.NewHost(calculator, o.override, o.logger),
		registry:   registry,
		validate:   validator.New(),
		logger:     o.logger,
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (s *Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := e.Group("/api/shipping")
	api.POST("/rates", s.handleRates)
	api.GET("/carriers/:id", s.handleCarrier)
}

func (s *Service) handleHealth(c echo.Context) error {
	if db := s.storage.DB(); db != nil {
		if err := db.PingContext(c.Request().Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": s.config.Environment,
		"provider":    s.config.Shipping.Provider,
	})
}

// RatesRequest is the body of a rate calculation. Dataset takes any of the
// shapes DecodeDataset understands.
type RatesRequest struct {
	Dataset json.RawMessage  `json:"dataset"`
	Options shipping.Options `json:"options"`
}

type RatesResponse struct {
	Rates []shipping.Rate `json:"rates"`
}

func (s *Service) handleRates(c echo.Context) error {
	var req RatesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if err := s.validate.Struct(req.Options); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid option: "+verrs[0].Field())
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid options")
	}

	ds := shipping.DecodeDataset(req.Dataset)
	rates := s.calculator.CalculateRates(c.Request().Context(), ds, req.Options)

	return c.JSON(http.StatusOK, RatesResponse{Rates: rates})
}

func (s *Service) handleCarrier(c echo.Context) error {
	id := c.Param("id")

	carrier, err := s.provider.GetCarrier(c.Request().Context(), id)
	if err != nil {
		var perr *shipping.ProviderError
		switch {
		case errors.Is(err, shipping.ErrNotSupported):
			return echo.NewHTTPError(http.StatusNotImplemented, "Carrier lookup is not supported by this provider")
		case errors.As(err, &perr) && perr.Status == http.StatusNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "Carrier not found")
		}
		s.logger.Error("failed to get carrier", "carrier_id", id, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to get carrier")
	}

	return c.JSON(http.StatusOK, carrier)
}
