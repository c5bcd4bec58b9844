package answers_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merlin-energy/truequote/internal/answers"
)

func TestReader_Float(t *testing.T) {
	tests := []struct {
		name         string
		value        any
		want         float64
		wantFallback bool
	}{
		{name: "float64", value: 0.75, want: 0.75},
		{name: "int", value: 120, want: 120},
		{name: "json number", value: json.Number("42.5"), want: 42.5},
		{name: "numeric string", value: " 120 ", want: 120},
		{name: "thousands separator", value: "10,000", want: 10000},
		{name: "blank string", value: "  ", want: 9, wantFallback: true},
		{name: "garbage string", value: "lots", want: 9, wantFallback: true},
		{name: "nil", value: nil, want: 9, wantFallback: true},
		{name: "bool is not a number", value: true, want: 9, wantFallback: true},
		{name: "NaN", value: math.NaN(), want: 9, wantFallback: true},
		{name: "Inf string", value: "+Inf", want: 9, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := answers.NewReader(answers.AnswerSet{"x": tt.value})
			assert.InDelta(t, tt.want, r.Float("x", 9), 1e-9)

			fb := r.Fallbacks()
			if tt.wantFallback {
				assert.Equal(t, 9.0, fb["x"])
			} else {
				assert.Empty(t, fb)
			}
		})
	}
}

func TestReader_MissingRecordsFallback(t *testing.T) {
	r := answers.NewReader(nil)
	assert.Equal(t, 12, r.Int("operatingHours", 12))
	assert.Equal(t, "midscale", r.String("hotelClass", "midscale"))
	assert.False(t, r.Bool("includeSolar", false))

	assert.Equal(t, map[string]any{
		"operatingHours": 12,
		"hotelClass":     "midscale",
		"includeSolar":   false,
	}, r.Fallbacks())
}

func TestReader_Count(t *testing.T) {
	tests := []struct {
		name         string
		value        any
		want         int
		wantErr      bool
		wantFallback bool
	}{
		{name: "int", value: 120, want: 120},
		{name: "whole float", value: 40.0, want: 40},
		{name: "numeric string", value: "4", want: 4},
		{name: "zero", value: 0, want: 0},
		{name: "negative", value: -3, wantErr: true},
		{name: "negative fraction", value: -0.5, wantErr: true},
		{name: "fraction", value: 12.5, wantErr: true},
		{name: "garbage", value: "many", want: 7, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := answers.NewReader(answers.AnswerSet{"rooms": tt.value})
			got, err := r.Count("rooms", 7)
			if tt.wantErr {
				var inputErr *answers.InputError
				require.ErrorAs(t, err, &inputErr)
				assert.Equal(t, "rooms", inputErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.wantFallback {
				assert.Equal(t, 7, r.Fallbacks()["rooms"])
			} else {
				assert.Empty(t, r.Fallbacks())
			}
		})
	}
}

func TestReader_WithDefaults(t *testing.T) {
	defaults := answers.AnswerSet{
		"rooms":        80,
		"hotelClass":   "economy",
		"includeSolar": true,
		"amenities":    []any{"pool"},
		"pue":          "not a number",
	}
	r := answers.NewReader(answers.AnswerSet{
		"rooms":        "lots",
		"hotelClass":   nil,
		"includeSolar": "perhaps",
	}).WithDefaults(defaults)

	rooms, err := r.Count("rooms", 150)
	require.NoError(t, err)
	assert.Equal(t, 80, rooms)
	assert.Equal(t, "economy", r.String("hotelClass", "midscale"))
	assert.True(t, r.Bool("includeSolar", false))
	assert.Equal(t, []string{"pool"}, r.Strings("amenities", nil))
	assert.InDelta(t, 1.5, r.Float("pue", 1.5), 1e-9, "uncoercible default is ignored")

	assert.Equal(t, map[string]any{
		"rooms":        80,
		"hotelClass":   "economy",
		"includeSolar": true,
		"amenities":    []string{"pool"},
		"pue":          1.5,
	}, r.Fallbacks())
}

func TestReader_IntRejectsFraction(t *testing.T) {
	r := answers.NewReader(answers.AnswerSet{"operatingHours": 10.5})
	assert.Equal(t, 12, r.Int("operatingHours", 12))
	assert.Equal(t, 12, r.Fallbacks()["operatingHours"])
}

func TestReader_Enum(t *testing.T) {
	allowed := []string{"economy", "midscale", "upscale", "luxury"}

	t.Run("case and separators ignored", func(t *testing.T) {
		r := answers.NewReader(answers.AnswerSet{"hotelClass": "Mid-Scale"})
		_, err := r.Enum("hotelClass", "midscale", allowed...)
		require.Error(t, err, "mid_scale is not midscale")

		r = answers.NewReader(answers.AnswerSet{"hotelClass": " UPSCALE "})
		got, err := r.Enum("hotelClass", "midscale", allowed...)
		require.NoError(t, err)
		assert.Equal(t, "upscale", got)
	})

	t.Run("unknown value is an input error", func(t *testing.T) {
		r := answers.NewReader(answers.AnswerSet{"hotelClass": "palace"})
		_, err := r.Enum("hotelClass", "midscale", allowed...)
		var inputErr *answers.InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Contains(t, err.Error(), "palace")
	})

	t.Run("missing uses default", func(t *testing.T) {
		r := answers.NewReader(nil)
		got, err := r.Enum("hotelClass", "midscale", allowed...)
		require.NoError(t, err)
		assert.Equal(t, "midscale", got)
		assert.Contains(t, r.Fallbacks(), "hotelClass")
	})
}

func TestReader_Ratio(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    float64
		wantErr bool
	}{
		{name: "fraction", value: 0.6, want: 0.6},
		{name: "one", value: 1, want: 1},
		{name: "whole percentage", value: 75, want: 0.75},
		{name: "percentage string", value: "40", want: 0.40},
		{name: "hundred percent", value: 100, want: 1},
		{name: "fraction above one", value: 1.5, wantErr: true},
		{name: "fractional percentage", value: 62.5, wantErr: true},
		{name: "above hundred", value: 140, wantErr: true},
		{name: "negative", value: -0.2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := answers.NewReader(answers.AnswerSet{"occ": tt.value})
			got, err := r.Ratio("occ", 0.7)
			if tt.wantErr {
				var inputErr *answers.InputError
				require.ErrorAs(t, err, &inputErr)
				assert.Equal(t, "occ", inputErr.Field)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestReader_BoolAndStrings(t *testing.T) {
	r := answers.NewReader(answers.AnswerSet{
		"solar":     "yes",
		"grid":      "false",
		"amenities": []any{"pool", "restaurant"},
		"csv":       "pool, spa,,",
		"broken":    map[string]any{"a": 1},
	})

	assert.True(t, r.Bool("solar", false))
	assert.False(t, r.Bool("grid", true))
	assert.Equal(t, []string{"pool", "restaurant"}, r.Strings("amenities", nil))
	assert.Equal(t, []string{"pool", "spa"}, r.Strings("csv", nil))
	assert.Equal(t, []string{"x"}, r.Strings("broken", []string{"x"}))
	assert.Contains(t, r.Fallbacks(), "broken")
}

func TestReader_Hours(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{name: "plain number", value: 14, want: 14},
		{name: "span", value: map[string]any{"start": 7, "end": 19}, want: 12},
		{name: "overnight span", value: map[string]any{"start": 22, "end": 6}, want: 8},
		{name: "clamped", value: 30, want: 24},
		{name: "incomplete span", value: map[string]any{"start": 7}, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := answers.NewReader(answers.AnswerSet{"operatingHours": tt.value})
			assert.InDelta(t, tt.want, r.Hours("operatingHours", 10), 1e-9)
		})
	}
}
