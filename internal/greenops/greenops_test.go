package greenops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		kg          float64
		wantMiles   float64
		wantHomes   float64
		wantIsEmpty bool
		wantErr     error
	}{
		{
			name:      "150kg reference value",
			kg:        150.0,
			wantMiles: 781.25, // 150 / 0.192
			wantHomes: 8.197,  // 150 / 18.3
		},
		{name: "below threshold", kg: 0.5, wantIsEmpty: true},
		{name: "zero", kg: 0, wantIsEmpty: true},
		{name: "negative", kg: -1, wantErr: ErrNegativeValue},
		{name: "NaN", kg: math.NaN(), wantErr: ErrCalculationOverflow},
		{name: "Inf", kg: math.Inf(1), wantErr: ErrCalculationOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.kg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, got.IsEmpty)
				return
			}
			require.NoError(t, err)
			if tt.wantIsEmpty {
				assert.True(t, got.IsEmpty)
				assert.InDelta(t, tt.kg, got.InputKg, 1e-9)
				return
			}

			require.Len(t, got.Results, 4)
			assert.Equal(t, EquivalencyMilesDriven, got.Results[0].Type)
			assert.InDelta(t, tt.wantMiles, got.Results[0].Value, tt.wantMiles*0.01)
			assert.Equal(t, EquivalencyHomeDays, got.Results[3].Type)
			assert.InDelta(t, tt.wantHomes, got.Results[3].Value, tt.wantHomes*0.01)
			assert.Contains(t, got.DisplayText, "Equivalent to ~781 miles")
			assert.Contains(t, got.CompactText, "home-days")
		})
	}
}

func TestAvoided(t *testing.T) {
	got, err := Avoided(100_000, 0.4)
	require.NoError(t, err)
	assert.InDelta(t, 40_000, got.Equivalency.InputKg, 1e-9)
	assert.False(t, got.Equivalency.IsEmpty)
	assert.Contains(t, got.Equivalency.DisplayText, "208,333 miles")

	_, err = Avoided(-1, 0.4)
	assert.ErrorIs(t, err, ErrNegativeValue)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "18,248", FormatNumber(18248))
	assert.Equal(t, "-1,000", FormatNumber(-1000))
	assert.Equal(t, "1,234.57", FormatFloat(1234.567, 2))
	assert.Equal(t, "1,235", FormatFloat(1234.567, 0))
	assert.Equal(t, "999,999", FormatLarge(999_999))
	assert.Equal(t, "~1.5 million", FormatLarge(1_500_000))
	assert.Equal(t, "~2.0 billion", FormatLarge(2_000_000_000))
}
