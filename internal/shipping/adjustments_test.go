package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAdjustments(t *testing.T) {
	tests := []struct {
		name      string
		service   ServiceSetting
		global    GlobalAdjustment
		wantCost  string
		wantSrc   string
		wantValue string
	}{
		{
			name:     "no adjustment",
			wantCost: "10.00",
		},
		{
			name:      "service percentage",
			service:   ServiceSetting{Adjustment: decPtr("15"), AdjustmentType: AdjustmentPercentage},
			wantCost:  "11.50",
			wantSrc:   "service",
			wantValue: "1.50",
		},
		{
			name:      "service flat",
			service:   ServiceSetting{Adjustment: decPtr("2.25"), AdjustmentType: AdjustmentFlat},
			wantCost:  "12.25",
			wantSrc:   "service",
			wantValue: "2.25",
		},
		{
			name:      "global percentage rounds to cents",
			global:    GlobalAdjustment{Amount: dec("3.333"), Type: AdjustmentPercentage},
			wantCost:  "10.33",
			wantSrc:   "global",
			wantValue: "0.33",
		},
		{
			name:     "service zero shadows global",
			service:  ServiceSetting{Adjustment: decPtr("0"), AdjustmentType: AdjustmentFlat},
			global:   GlobalAdjustment{Amount: dec("5"), Type: AdjustmentFlat},
			wantCost: "10.00",
		},
		{
			name:      "service wins over global",
			service:   ServiceSetting{Adjustment: decPtr("1"), AdjustmentType: AdjustmentFlat},
			global:    GlobalAdjustment{Amount: dec("50"), Type: AdjustmentPercentage},
			wantCost:  "11.00",
			wantSrc:   "service",
			wantValue: "1.00",
		},
		{
			name:     "amount without type is ignored",
			service:  ServiceSetting{Adjustment: decPtr("4")},
			wantCost: "10.00",
		},
		{
			name:     "negative amounts are ignored",
			global:   GlobalAdjustment{Amount: dec("-2"), Type: AdjustmentFlat},
			wantCost: "10.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Services["se-1"]["ground"] = tt.service
			cfg.GlobalAdjustment = tt.global

			got := ApplyAdjustments(carrierRate("se-1", "ground", "10.00"), PackageRequest{}, cfg)

			assert.Equal(t, "10.00", got.RawCost.StringFixed(2))
			assert.Equal(t, tt.wantCost, got.Cost.StringFixed(2))
			if tt.wantSrc == "" {
				assert.Nil(t, got.Adjustment)
				return
			}
			require.NotNil(t, got.Adjustment)
			assert.Equal(t, tt.wantSrc, got.Adjustment.Source)
			assert.Equal(t, tt.wantValue, got.Adjustment.Value.StringFixed(2))
		})
	}
}

func TestApplyAdjustments_OtherCosts(t *testing.T) {
	cfg := testConfig()
	cfg.Packing = PackingCustomBoxes
	cfg.GlobalAdjustment = GlobalAdjustment{Amount: dec("10"), Type: AdjustmentPercentage}

	raw := carrierRate("se-1", "ground", "20.00")
	raw.OtherCosts = []OtherCost{
		{Slug: "insurance", Amount: dec("1.25")},
		{Slug: "confirmation", Amount: dec("0")},
		{Slug: "", Amount: dec("3")},
	}
	pkg := PackageRequest{BoxNickname: "Cube", Price: decPtr("0.75")}

	got := ApplyAdjustments(raw, pkg, cfg)

	// 20 + 2 (10%) + 1.25 insurance + 0.75 box
	assert.Equal(t, "24.00", got.Cost.StringFixed(2))
	require.Len(t, got.OtherCosts, 2)
	assert.Equal(t, "1.25", got.OtherCosts["insurance"].StringFixed(2))
	assert.Equal(t, "0.75", got.OtherCosts["box_price"].StringFixed(2))
	assert.Equal(t, "2.00", got.Adjustment.Value.StringFixed(2), "percentage applies to the raw cost only")
}

func TestApplyAdjustments_BoxPriceOnlyForCustomBoxes(t *testing.T) {
	cfg := testConfig()
	pkg := PackageRequest{Price: decPtr("0.75")}

	got := ApplyAdjustments(carrierRate("se-1", "ground", "5.00"), pkg, cfg)
	assert.Equal(t, "5.00", got.Cost.StringFixed(2))
	assert.Empty(t, got.OtherCosts)
}
