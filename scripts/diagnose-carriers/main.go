package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/loganlanou/shipstation-rates/internal/shipping"
	"github.com/loganlanou/shipstation-rates/service"
)

// Lists the services of each carrier given on the command line and quotes a
// test parcel against them using the provider selected by RATE_PROVIDER.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: diagnose-carriers <carrier-id> [carrier-id...]")
	}
	carrierIDs := os.Args[1:]

	config, err := service.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	provider, closeProvider, err := service.NewProvider(ctx, config.Shipping, nil, slog.Default())
	if err != nil {
		log.Fatalf("Failed to create provider: %v", err)
	}
	defer closeProvider()

	fmt.Printf("=== Carrier Diagnostics (%s) ===\n\n", config.Shipping.Provider)

	fmt.Println("📋 Step 1: Fetching carrier catalogs...")
	for _, id := range carrierIDs {
		carrier, err := provider.GetCarrier(ctx, id)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", id, err)
			continue
		}
		fmt.Printf("✅ %s (%s)\n", carrier.Name, carrier.ID)
		for _, s := range carrier.Services {
			fmt.Printf("   - %s: %s\n", s.Code, s.Name)
		}
	}

	fmt.Println("\n📦 Step 2: Requesting estimates for a test parcel...")
	rates, err := provider.GetEstimates(ctx, shipping.EstimateRequest{
		CarrierIDs:                  carrierIDs,
		FromCountryCode:             "US",
		FromPostalCode:              "54701",
		ToCountryCode:               "US",
		ToPostalCode:                "10001",
		AddressResidentialIndicator: "unknown",
		Weight:                      shipping.Weight{Value: 1, Unit: provider.ConvertUnitTerm("lbs")},
		Dimensions: &shipping.Dimensions{
			Length: 8, Width: 6, Height: 4,
			Unit: provider.ConvertUnitTerm("in"),
		},
	})
	if err != nil {
		log.Fatalf("Failed to get estimates: %v", err)
	}

	fmt.Printf("✅ Received %d rate(s):\n\n", len(rates))
	for _, r := range rates {
		status := "✅"
		if len(r.ErrorMessages) > 0 {
			status = "⚠️ "
		}
		fmt.Printf("%s %s %s (%s): $%s\n", status, r.CarrierName, r.ServiceName, r.ServiceCode, r.Cost.StringFixed(2))
		for _, msg := range r.ErrorMessages {
			fmt.Printf("     %s\n", msg)
		}
	}
}
