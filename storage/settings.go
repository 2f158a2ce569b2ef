package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/loganlanou/shipstation-rates/internal/shipping"
	"github.com/loganlanou/shipstation-rates/storage/db"
)

// ErrNotFound is returned when a method instance does not exist.
var ErrNotFound = errors.New("not found")

var (
	_ shipping.SettingsStore = (*Storage)(nil)
	_ shipping.ProductSource = (*Storage)(nil)
)

// Option values are stored as JSON documents so nested settings keep their
// shape.

func (s *Storage) PluginOption(ctx context.Context, key string) (any, bool, error) {
	raw, err := s.Queries.GetPluginOption(ctx, key)
	return decodeOption(key, raw, err)
}

func (s *Storage) PlatformOption(ctx context.Context, key string) (any, bool, error) {
	raw, err := s.Queries.GetPlatformOption(ctx, key)
	return decodeOption(key, raw, err)
}

func decodeOption(key, raw string, err error) (any, bool, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get option %s: %w", key, err)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false, fmt.Errorf("failed to decode option %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Storage) SetPluginOption(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode option %s: %w", key, err)
	}
	return s.Queries.UpsertPluginOption(ctx, db.UpsertPluginOptionParams{Key: key, Value: string(data)})
}

func (s *Storage) SetPlatformOption(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode option %s: %w", key, err)
	}
	return s.Queries.UpsertPlatformOption(ctx, db.UpsertPlatformOptionParams{Key: key, Value: string(data)})
}

// MethodSettings returns the settings of a shipping method instance.
func (s *Storage) MethodSettings(ctx context.Context, instanceID int) (shipping.Source, error) {
	instance, err := s.Queries.GetMethodInstance(ctx, int64(instanceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("method instance %d: %w", instanceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get method instance %d: %w", instanceID, err)
	}

	settings := shipping.MapSource{}
	if err := json.Unmarshal([]byte(instance.Settings), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode method instance %d: %w", instanceID, err)
	}
	if _, ok := settings["title"]; !ok && instance.Title != "" {
		settings["title"] = instance.Title
	}
	return settings, nil
}

func (s *Storage) SaveMethodInstance(ctx context.Context, instanceID int, title string, settings map[string]any) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode method instance %d: %w", instanceID, err)
	}
	_, err = s.Queries.UpsertMethodInstance(ctx, db.UpsertMethodInstanceParams{
		ID:       int64(instanceID),
		Title:    title,
		Settings: string(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save method instance %d: %w", instanceID, err)
	}
	return nil
}

// FetchByIDs returns the known products among ids, in the order requested.
func (s *Storage) FetchByIDs(ctx context.Context, ids []string) ([]shipping.Product, error) {
	rows, err := s.Queries.ListProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	byID := make(map[string]db.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	products := make([]shipping.Product, 0, len(rows))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		products = append(products, toProduct(row))
	}
	return products, nil
}

func (s *Storage) UpsertProduct(ctx context.Context, p shipping.Product) (shipping.Product, error) {
	row, err := s.Queries.UpsertProduct(ctx, db.UpsertProductParams{
		ID:         p.ID,
		Name:       p.Name,
		Weight:     nullFloat(p.Weight),
		Length:     nullFloat(p.Length),
		Width:      nullFloat(p.Width),
		Height:     nullFloat(p.Height),
		PriceCents: p.Price.Shift(2).Round(0).IntPart(),
		IsVirtual:  p.Virtual,
	})
	if err != nil {
		return shipping.Product{}, fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return toProduct(row), nil
}

func toProduct(row db.Product) shipping.Product {
	return shipping.Product{
		ID:      row.ID,
		Name:    row.Name,
		Weight:  row.Weight.Float64,
		Length:  row.Length.Float64,
		Width:   row.Width.Float64,
		Height:  row.Height.Float64,
		Price:   decimal.New(row.PriceCents, -2),
		Virtual: row.IsVirtual,
	}
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}
