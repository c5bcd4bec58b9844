package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/calculators"
	"github.com/merlin-energy/truequote/internal/pricing"
	"github.com/merlin-energy/truequote/internal/templates"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	reg, err := templates.NewRegistry(context.Background(), templates.EmbeddedSource{})
	require.NoError(t, err)
	table, err := pricing.DefaultTable()
	require.NoError(t, err)
	eng, err := New(reg, table, opts...)
	require.NoError(t, err)
	return eng
}

func hotelRequest() Request {
	return Request{
		IndustryID: "hotel",
		Answers: answers.AnswerSet{
			"rooms":           120,
			"occupancyRate":   0.75,
			"hotelClass":      "midscale",
			"amenities":       []string{"pool", "restaurant"},
			"electricityRate": 0.14,
			"demandCharge":    18,
		},
		LocationZip:   "89101",
		LocationState: "NV",
	}
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *countingRecorder) ObserveQuote(_, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func TestNew_RequiresDependencies(t *testing.T) {
	table, err := pricing.DefaultTable()
	require.NoError(t, err)
	_, err = New(nil, table)
	assert.Error(t, err)

	reg, err := templates.NewRegistryFromTemplates(nil)
	require.NoError(t, err)
	_, err = New(reg, nil)
	assert.Error(t, err)
}

func TestQuote_HotelScenario(t *testing.T) {
	eng := newTestEngine(t)

	resp, err := eng.Quote(context.Background(), hotelRequest())
	require.NoError(t, err)

	lp := resp.LoadProfile
	assert.Greater(t, lp.PeakLoadKW, 0.0)
	ratio := lp.BaseLoadKW / lp.PeakLoadKW
	assert.GreaterOrEqual(t, ratio, 0.35)
	assert.LessOrEqual(t, ratio, 0.80)
	assert.LessOrEqual(t, lp.EnergyKWhPerDay, lp.PeakLoadKW*24)
	assert.InDelta(t, 388.55, lp.PeakLoadKW, 1e-6)

	require.NotNil(t, resp.Pricing)
	assert.True(t, resp.Pricing.CapexUSD.IsPositive())
	assert.True(t, resp.Pricing.ROIYears.Defined())

	assert.Equal(t, calculators.VersionV1, resp.Trace.Version)
	assert.Empty(t, resp.Trace.HardFailures)
	assert.NotEmpty(t, resp.QuoteID)
	assert.Equal(t, "hotel", resp.IndustryID)

	assert.Contains(t, resp.Trace.InputFallbacks, templates.FieldGridConnection)
	assert.NotContains(t, resp.Trace.InputFallbacks, "rooms")
	assert.Equal(t, 0.14, resp.Trace.InputsUsed[templates.FieldElectricityRate])
}

func TestRunContractQuote_DataCenterScenario(t *testing.T) {
	eng := newTestEngine(t)

	cr, err := eng.RunContractQuote(context.Background(), Request{
		IndustryID: "data_center",
		Answers:    answers.AnswerSet{"rackCount": 50, "kWPerRack": 8, "pue": 1.5},
	})
	require.NoError(t, err)

	itLoad := cr.LoadProfile.KWContributors[calculators.ITLoad]
	assert.InDelta(t, 400, itLoad, 1e-9)
	assert.InDelta(t, 600, cr.LoadProfile.PeakLoadKW, 1e-6)
	assert.InDelta(t, 1.5, cr.LoadProfile.PeakLoadKW/itLoad, 0.15)
	assert.False(t, cr.Trace.HardFailed())
}

func TestRunContractQuote_PUEMonotonic(t *testing.T) {
	eng := newTestEngine(t)

	var lastPeak float64
	for _, pue := range []float64{1.1, 1.3, 1.5, 2.0, 2.6} {
		cr, err := eng.RunContractQuote(context.Background(), Request{
			IndustryID: "data_center",
			Answers:    answers.AnswerSet{"itLoadKW": 400, "pue": pue},
		})
		require.NoError(t, err)

		peak := cr.LoadProfile.PeakLoadKW
		assert.Greater(t, peak, lastPeak, "pue %.1f", pue)
		assert.InDelta(t, pue, peak/400, pue*0.10, "observed PUE tracks input %.1f", pue)
		lastPeak = peak
	}
}

func TestQuote_CarWashZeroUnits(t *testing.T) {
	rec := &countingRecorder{}
	eng := newTestEngine(t, WithRecorder(rec))

	resp, err := eng.Quote(context.Background(), Request{
		IndustryID: "car_wash",
		Answers:    answers.AnswerSet{"tunnelOrBayCount": 0, "dailyVehicles": 0},
	})
	require.NoError(t, err)

	assert.Zero(t, resp.LoadProfile.PeakLoadKW)
	assert.Nil(t, resp.Pricing)
	require.True(t, resp.Trace.HardFailed())
	assert.True(t, strings.HasPrefix(resp.Trace.HardFailures[0], FailureZeroPeak))
	assert.Contains(t, resp.Trace.Warnings, resp.Trace.HardFailures[0])
	assert.Equal(t, 1, rec.outcomes[OutcomeHardFailure])

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"pricing"`)
}

func TestRunContractQuote_StateRateDefaults(t *testing.T) {
	eng := newTestEngine(t)
	req := hotelRequest()
	delete(req.Answers, "electricityRate")
	delete(req.Answers, "demandCharge")
	req.LocationState = "CA"

	cr, err := eng.RunContractQuote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.27, cr.Trace.InputFallbacks[templates.FieldElectricityRate])
	assert.Equal(t, 24.0, cr.Trace.InputsUsed[templates.FieldDemandCharge])

	req.LocationState = "ZZ"
	cr, err = eng.RunContractQuote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.13, cr.Trace.InputFallbacks[templates.FieldElectricityRate])
}

func TestRunContractQuote_UnparseableAnswerRecorded(t *testing.T) {
	eng := newTestEngine(t)
	req := hotelRequest()
	req.Answers["occupancyRate"] = "lots"

	cr, err := eng.RunContractQuote(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, cr.Trace.InputFallbacks, "occupancyRate")
	assert.Equal(t, "lots", cr.Trace.InputsUsed["occupancyRate"], "answers are reported as supplied")
}

func TestRunContractQuote_SiteAnswers(t *testing.T) {
	eng := newTestEngine(t)

	t.Run("unparseable tariff falls back to the state rate", func(t *testing.T) {
		req := hotelRequest()
		req.Answers["electricityRate"] = "abc"
		req.Answers["demandCharge"] = "n/a"
		req.Answers["includeSolar"] = "maybe"

		resp, err := eng.Quote(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 0.11, resp.Trace.InputFallbacks[templates.FieldElectricityRate])
		assert.Equal(t, 14.0, resp.Trace.InputFallbacks[templates.FieldDemandCharge])
		assert.Equal(t, false, resp.Trace.InputFallbacks[templates.FieldIncludeSolar])
		assert.Contains(t, resp.Trace.Warnings, "electricityRate: could not use abc, default 0.11 applied")
		assert.Contains(t, resp.Trace.Warnings, "demandCharge: could not use n/a, default 14 applied")

		require.NotNil(t, resp.Pricing)
		assert.True(t, resp.Pricing.AnnualSavingsUSD.IsPositive())
		assert.True(t, resp.Pricing.ROIYears.Defined())
	})

	t.Run("resolved values reach pricing", func(t *testing.T) {
		req := hotelRequest()
		req.Answers["gridConnection"] = "Limited"
		req.Answers["gridCapacity"] = 0.25
		req.Answers["gridServices"] = "yes"

		cr, err := eng.RunContractQuote(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, Site{
			GridConnection:  templates.GridLimited,
			GridCapacityKW:  250,
			ElectricityRate: 0.14,
			DemandCharge:    18,
			GridServices:    true,
		}, cr.Site)

		in := PricingInput(cr, "NV")
		assert.Equal(t, templates.GridLimited, in.GridConnection)
		assert.Equal(t, 250.0, in.GridCapacityKW)
		assert.True(t, in.GridServices)
	})

	t.Run("required answers missing are noted", func(t *testing.T) {
		cr, err := eng.RunContractQuote(context.Background(), hotelRequest())
		require.NoError(t, err)
		assert.Contains(t, cr.Trace.Warnings, "gridConnection: required answer missing, default reliable applied")
	})

	invalid := []struct {
		name  string
		field string
		value any
	}{
		{name: "unknown grid connection", field: "gridConnection", value: "sideways"},
		{name: "negative electricity rate", field: "electricityRate", value: -0.1},
		{name: "negative demand charge", field: "demandCharge", value: "-5"},
		{name: "negative grid capacity", field: "gridCapacity", value: -1},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			req := hotelRequest()
			req.Answers[tt.field] = tt.value
			_, err := eng.Quote(context.Background(), req)
			var inputErr *answers.InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestRunContractQuote_Errors(t *testing.T) {
	eng := newTestEngine(t)

	t.Run("unknown industry", func(t *testing.T) {
		_, err := eng.RunContractQuote(context.Background(), Request{IndustryID: "casino"})
		var notFound *templates.TemplateNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "casino", notFound.IndustryID)
	})

	t.Run("negative count", func(t *testing.T) {
		req := hotelRequest()
		req.Answers["rooms"] = -4
		_, err := eng.RunContractQuote(context.Background(), req)
		var inputErr *answers.InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Equal(t, "rooms", inputErr.Field)
	})

	t.Run("unknown enum", func(t *testing.T) {
		req := hotelRequest()
		req.Answers["hotelClass"] = "palace"
		_, err := eng.RunContractQuote(context.Background(), req)
		var inputErr *answers.InputError
		assert.ErrorAs(t, err, &inputErr)
	})

	t.Run("calculator missing", func(t *testing.T) {
		reg, err := templates.NewRegistryFromTemplates([]templates.IndustryTemplate{
			{IndustryID: "bakery", CalculatorID: "ovens"},
		})
		require.NoError(t, err)
		table, err := pricing.DefaultTable()
		require.NoError(t, err)
		e, err := New(reg, table)
		require.NoError(t, err)

		_, err = e.Quote(context.Background(), Request{IndustryID: "bakery"})
		assert.ErrorIs(t, err, calculators.ErrCalculatorNotFound)
	})
}

func TestQuote_InvertedProfileSkipsPricing(t *testing.T) {
	calcs, err := calculators.NewRegistry(calculators.Calculator{
		ID: "inverted",
		Compute: func(*answers.Reader) (calculators.Result, error) {
			return calculators.Result{
				BaseLoadKW:      120,
				PeakLoadKW:      100,
				EnergyKWhPerDay: 3000,
				Contributors:    map[string]float64{calculators.Process: 100},
			}, nil
		},
	})
	require.NoError(t, err)
	reg, err := templates.NewRegistryFromTemplates([]templates.IndustryTemplate{
		{IndustryID: "foundry", CalculatorID: "inverted"},
	})
	require.NoError(t, err)
	table, err := pricing.DefaultTable()
	require.NoError(t, err)
	eng, err := New(reg, table, WithCalculators(calcs))
	require.NoError(t, err)

	resp, err := eng.Quote(context.Background(), Request{IndustryID: "foundry"})
	require.NoError(t, err)
	assert.Nil(t, resp.Pricing)
	require.Len(t, resp.Trace.HardFailures, 2)
	assert.Contains(t, resp.Trace.HardFailures[0], "peak 100.0 kW, base 120.0 kW")
	assert.True(t, strings.HasPrefix(resp.Trace.HardFailures[1], FailureEnergyAbove))
	assert.Equal(t, calculators.VersionLegacy, resp.Trace.Version)
}

func TestRunContractQuote_Idempotent(t *testing.T) {
	eng := newTestEngine(t)
	for _, id := range eng.Templates().IDs() {
		t.Run(id, func(t *testing.T) {
			first, err := eng.RunContractQuote(context.Background(), Request{IndustryID: id})
			require.NoError(t, err)
			second, err := eng.RunContractQuote(context.Background(), Request{IndustryID: id})
			require.NoError(t, err)

			if diff := cmp.Diff(first.LoadProfile, second.LoadProfile); diff != "" {
				t.Errorf("load profile differs (-first +second):\n%s", diff)
			}
			if diff := cmp.Diff(first.Trace.InputFallbacks, second.Trace.InputFallbacks); diff != "" {
				t.Errorf("fallbacks differ (-first +second):\n%s", diff)
			}
		})
	}
}

func TestRunContractQuote_DefaultsSatisfyInvariants(t *testing.T) {
	eng := newTestEngine(t)
	for _, id := range eng.Templates().IDs() {
		cr, err := eng.RunContractQuote(context.Background(), Request{IndustryID: id})
		require.NoError(t, err, id)
		assert.Empty(t, cr.Trace.HardFailures, id)
		assert.LessOrEqual(t, cr.LoadProfile.BaseLoadKW, cr.LoadProfile.PeakLoadKW, id)
		assert.LessOrEqual(t, cr.LoadProfile.EnergyKWhPerDay, cr.LoadProfile.PeakLoadKW*24+1e-6, id)
	}
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name    string
		profile LoadProfile
		want    []string
	}{
		{name: "clean", profile: LoadProfile{BaseLoadKW: 50, PeakLoadKW: 100, EnergyKWhPerDay: 1800}},
		{name: "flat load on the boundary", profile: LoadProfile{BaseLoadKW: 100, PeakLoadKW: 100, EnergyKWhPerDay: 2400}},
		{name: "zero", profile: LoadProfile{}, want: []string{FailureZeroPeak}},
		{name: "base above peak", profile: LoadProfile{BaseLoadKW: 150, PeakLoadKW: 100, EnergyKWhPerDay: 10},
			want: []string{FailurePeakBelow}},
		{name: "energy above physical max", profile: LoadProfile{BaseLoadKW: 10, PeakLoadKW: 100, EnergyKWhPerDay: 2500},
			want: []string{FailureEnergyAbove}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckInvariants(tt.profile)
			require.Len(t, got, len(tt.want))
			for i, prefix := range tt.want {
				assert.True(t, strings.HasPrefix(got[i], prefix), got[i])
			}
		})
	}
}

func TestTraceSinks(t *testing.T) {
	var buf bytes.Buffer
	mem := &MemorySink{}
	eng := newTestEngine(t, WithTraceSink(multiSink{NewJSONLSink(&buf), mem}))

	_, err := eng.Quote(context.Background(), hotelRequest())
	require.NoError(t, err)
	_, err = eng.Quote(context.Background(), hotelRequest())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var decoded Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, "hotel", decoded.IndustryID)

	recorded := mem.Responses()
	require.Len(t, recorded, 2)
	assert.NotEqual(t, recorded[0].QuoteID, recorded[1].QuoteID)
}

type multiSink []TraceSink

func (m multiSink) Record(ctx context.Context, resp *Response) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Record(ctx, resp))
	}
	return errors.Join(errs...)
}
