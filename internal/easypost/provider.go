package easypost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EasyPost/easypost-go/v5"
	"github.com/shopspring/decimal"

	"github.com/loganlanou/shipstation-rates/internal/shipping"
)

// shipmentCreator is the part of the EasyPost client the provider uses.
type shipmentCreator interface {
	CreateShipmentWithContext(ctx context.Context, in *easypost.Shipment) (*easypost.Shipment, error)
}

// Provider quotes rates through EasyPost. EasyPost rates every carrier
// account configured on the API key, so results are filtered to the
// requested carrier IDs afterwards.
type Provider struct {
	client shipmentCreator
	logger *slog.Logger
}

func New(apiKey string, logger *slog.Logger) *Provider {
	return newProvider(easypost.New(apiKey), logger)
}

func newProvider(client shipmentCreator, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{client: client, logger: logger}
}

func (p *Provider) GetEstimates(ctx context.Context, req shipping.EstimateRequest) ([]shipping.CarrierRate, error) {
	parcel := &easypost.Parcel{
		Weight: toOunces(req.Weight),
	}
	if d := req.Dimensions; d != nil {
		parcel.Length = toInches(d.Length, d.Unit)
		parcel.Width = toInches(d.Width, d.Unit)
		parcel.Height = toInches(d.Height, d.Unit)
	}

	shipment := &easypost.Shipment{
		FromAddress: &easypost.Address{
			City:    req.FromCityLocality,
			State:   req.FromStateProvince,
			Zip:     req.FromPostalCode,
			Country: req.FromCountryCode,
		},
		ToAddress: &easypost.Address{
			City:    req.ToCityLocality,
			State:   req.ToStateProvince,
			Zip:     req.ToPostalCode,
			Country: req.ToCountryCode,
		},
		Parcel: parcel,
	}

	p.logger.DebugContext(ctx, "EasyPost: creating shipment",
		"from_zip", req.FromPostalCode,
		"to_zip", req.ToPostalCode,
		"weight_oz", parcel.Weight,
		"dimensions", fmt.Sprintf("%.1fx%.1fx%.1f", parcel.Length, parcel.Width, parcel.Height))

	created, err := p.client.CreateShipmentWithContext(ctx, shipment)
	if err != nil {
		perr := &shipping.ProviderError{Op: "create shipment", Err: err}
		var apiErr *easypost.APIError
		if errors.As(err, &apiErr) {
			perr.Status = apiErr.StatusCode
		}
		return nil, perr
	}

	if len(created.Rates) == 0 {
		p.logger.DebugContext(ctx, "EasyPost: no rates returned", "shipment_id", created.ID)
		return nil, nil
	}

	requested := make(map[string]bool, len(req.CarrierIDs))
	for _, id := range req.CarrierIDs {
		requested[id] = true
	}

	rates := make([]shipping.CarrierRate, 0, len(created.Rates))
	for _, r := range created.Rates {
		if len(requested) > 0 && !requested[r.CarrierAccountID] {
			continue
		}
		cost, err := decimal.NewFromString(r.Rate)
		if err != nil {
			p.logger.DebugContext(ctx, "EasyPost: unparseable rate", "rate_id", r.ID, "rate", r.Rate)
			continue
		}
		rates = append(rates, shipping.CarrierRate{
			ServiceName:  r.Carrier + " " + r.Service,
			ServiceCode:  r.Service,
			Cost:         cost,
			Currency:     strings.ToLower(r.Currency),
			CarrierID:    r.CarrierAccountID,
			CarrierCode:  r.Carrier,
			CarrierName:  r.Carrier,
			PackageType:  "package",
			DeliveryDays: r.DeliveryDays,
		})
	}

	return rates, nil
}

// GetCarrier is not supported: carrier accounts are configured in the
// EasyPost dashboard and rates already carry the carrier name.
func (p *Provider) GetCarrier(ctx context.Context, carrierID string) (*shipping.Carrier, error) {
	return nil, fmt.Errorf("easypost carrier %s: %w", carrierID, shipping.ErrNotSupported)
}

func (p *Provider) GetWarehouse(ctx context.Context, warehouseID string) (*shipping.Warehouse, error) {
	return nil, fmt.Errorf("easypost warehouse %s: %w", warehouseID, shipping.ErrNotSupported)
}

// ConvertUnitTerm keeps the engine's own unit names; the provider converts
// to ounces and inches itself.
func (p *Provider) ConvertUnitTerm(unit string) string {
	return unit
}

// EasyPost takes parcel weights in ounces.
func toOunces(w shipping.Weight) float64 {
	return shipping.ConvertWeight(w.Value, w.Unit, "oz")
}

func toInches(v float64, unit string) float64 {
	return shipping.ConvertDimension(v, unit, "in")
}
