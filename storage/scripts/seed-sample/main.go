package main

import (
	"context"
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loganlanou/shipstation-rates/internal/shipping"
	"github.com/loganlanou/shipstation-rates/storage"
)

func main() {
	store, err := storage.New("./data/database.db")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()

	// Ship from the mock warehouse so quotes work without API credentials
	if err := store.SetPluginOption(ctx, "warehouse", "mock-warehouse"); err != nil {
		log.Fatal("Error saving warehouse:", err)
	}
	if err := store.SetPlatformOption(ctx, "store_address", shipping.Address{
		Name:          "Sample Store",
		CityLocality:  "Eau Claire",
		StateProvince: "WI",
		PostalCode:    "54701",
		CountryCode:   "US",
	}); err != nil {
		log.Fatal("Error saving store address:", err)
	}

	services := map[string]any{}
	for _, carrierID := range shipping.NewMockProvider().CarrierIDs() {
		services[carrierID] = map[string]any{}
	}
	services["mock-usps"] = map[string]any{
		"usps_ground_advantage": map[string]any{"enabled": true, "nickname": "Economy"},
		"usps_priority_mail":    map[string]any{"enabled": true, "adjustment": "10", "adjustment_type": "percentage"},
	}
	services["mock-ups"] = map[string]any{
		"ups_ground": map[string]any{"enabled": true},
	}

	if err := store.SaveMethodInstance(ctx, 1, "Sample Rates", map[string]any{
		"packing":  "wc-box-packer",
		"services": services,
		"customboxes": []map[string]any{
			{"active": true, "nickname": "Small", "outer_length": 8, "outer_width": 6, "outer_height": 4, "box_weight": 0.2, "max_weight": 10, "price": "0.75"},
			{"active": true, "nickname": "Large", "outer_length": 16, "outer_width": 12, "outer_height": 10, "box_weight": 0.6, "max_weight": 40, "price": "1.50"},
		},
	}); err != nil {
		log.Fatal("Error saving method instance:", err)
	}
	fmt.Println("Saved method instance 1: Sample Rates")

	for i := 0; i < 5; i++ {
		product, err := store.UpsertProduct(ctx, shipping.Product{
			ID:     uuid.New().String(),
			Name:   gofakeit.ProductName(),
			Weight: gofakeit.Float64Range(0.2, 5),
			Length: float64(gofakeit.Number(2, 10)),
			Width:  float64(gofakeit.Number(2, 8)),
			Height: float64(gofakeit.Number(1, 6)),
			Price:  decimal.New(int64(gofakeit.Number(500, 4999)), -2),
		})
		if err != nil {
			log.Printf("Error creating product: %v", err)
			continue
		}
		fmt.Printf("Created product: %s (%s) %.2flbs %gx%gx%g\n",
			product.Name, product.ID, product.Weight, product.Length, product.Width, product.Height)
	}

	fmt.Println("\nSample data created successfully!")
}
