// Package pricing is the second quote layer: it sizes storage, solar and
// generation equipment from a load profile, prices it from a versioned unit
// cost table, and derives savings, payback, ROI, NPV and IRR.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/merlin-energy/truequote/internal/greenops"
	"github.com/merlin-energy/truequote/internal/logging"
)

// roiHorizonYears is the window of the simple ROI figure.
const roiHorizonYears = 10

// ErrNoLoad is returned when pricing is asked to quote a profile with no
// peak load. Contract quotes never reach pricing in that state.
var ErrNoLoad = errors.New("load profile has no peak load")

// Input is everything pricing needs from the contract layer.
type Input struct {
	PeakLoadKW      float64
	BaseLoadKW      float64
	EnergyKWhPerDay float64

	GridConnection  string
	GridCapacityKW  float64
	ElectricityRate float64 // $/kWh
	DemandCharge    float64 // $/kW-month
	IncludeSolar    bool
	GridServices    bool
	State           string
}

// Sizing is the equipment implied by the load profile.
type Sizing struct {
	BatteryKW   float64 `json:"batteryKW"`
	BatteryKWh  float64 `json:"batteryKWh"`
	BackupHours float64 `json:"backupHours"`
	InverterKW  float64 `json:"inverterKW"`
	SolarKW     float64 `json:"solarKW"`
	GeneratorKW float64 `json:"generatorKW"`
}

// LineItem is one priced piece of equipment.
type LineItem struct {
	Equipment string          `json:"equipment"`
	Size      float64         `json:"size"`
	UnitCost  UnitCost        `json:"unitCost"`
	CostUSD   decimal.Decimal `json:"costUSD"`
}

// Savings breaks annual savings down by source.
type Savings struct {
	ArbitrageUSD    decimal.Decimal `json:"arbitrageUSD"`
	DemandUSD       decimal.Decimal `json:"demandUSD"`
	GridServicesUSD decimal.Decimal `json:"gridServicesUSD"`
	SolarUSD        decimal.Decimal `json:"solarUSD"`
}

// Result is the pricing outcome for one quote.
type Result struct {
	Sizing          Sizing          `json:"sizing"`
	LineItems       []LineItem      `json:"lineItems"`
	InstallationUSD decimal.Decimal `json:"installationUSD"`
	CapexUSD        decimal.Decimal `json:"capexUSD"`
	ITCUSD          decimal.Decimal `json:"itcUSD"`
	NetCostUSD      decimal.Decimal `json:"netCostUSD"`

	Savings          Savings         `json:"savings"`
	AnnualSavingsUSD decimal.Decimal `json:"annualSavingsUSD"`

	// ROIYears is simple payback, capex / annual savings.
	ROIYears   Years           `json:"roiYears"`
	TenYearROI Ratio           `json:"tenYearROI"`
	NPVUSD     decimal.Decimal `json:"npvUSD"`
	IRR        Ratio           `json:"irr"`

	Emissions *greenops.AvoidedEmissions `json:"emissions,omitempty"`
	Warnings  []string                   `json:"warnings,omitempty"`
}

// Quote prices in against the table. It fails only on a missing unit cost
// or an empty profile; zero savings produce undefined figures and a warning.
func (t *Table) Quote(ctx context.Context, in Input) (*Result, error) {
	log := logging.FromContext(ctx)

	if in.PeakLoadKW <= 0 || !isFinite(in.PeakLoadKW) {
		return nil, fmt.Errorf("%w: got %g kW", ErrNoLoad, in.PeakLoadKW)
	}

	fc := t.Financial
	res := &Result{Sizing: t.size(in)}

	var equipment, itcEligible float64
	for _, item := range []struct {
		name string
		size float64
		itc  bool
	}{
		{Battery, res.Sizing.BatteryKWh, true},
		{Inverter, res.Sizing.InverterKW, true},
		{Solar, res.Sizing.SolarKW, true},
		{Generator, res.Sizing.GeneratorKW, false},
	} {
		if item.size <= 0 {
			continue
		}
		uc, err := t.GetUnitCost(item.name, item.size)
		if err != nil {
			return nil, err
		}
		cost := uc.CostFor(item.size)
		equipment += cost
		if item.itc {
			itcEligible += cost
		}
		res.LineItems = append(res.LineItems, LineItem{
			Equipment: item.name,
			Size:      item.size,
			UnitCost:  uc,
			CostUSD:   money(cost),
		})
	}

	installation := equipment * fc.InstallationRate
	capex := equipment + installation
	itc := itcEligible * (1 + fc.InstallationRate) * fc.ITCRate
	netCost := capex - itc

	res.InstallationUSD = money(installation)
	res.CapexUSD = money(capex)
	res.ITCUSD = money(itc)
	res.NetCostUSD = money(netCost)

	savings, solarKWhYear := t.savings(in, res.Sizing)
	res.Savings = Savings{
		ArbitrageUSD:    money(savings.arbitrage),
		DemandUSD:       money(savings.demand),
		GridServicesUSD: money(savings.gridServices),
		SolarUSD:        money(savings.solar),
	}
	annual := savings.total()
	res.AnnualSavingsUSD = money(annual)

	if annual <= 0 {
		res.ROIYears = UndefinedYears
		res.TenYearROI = UndefinedRatio
		res.IRR = UndefinedRatio
		res.NPVUSD = money(-netCost)
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"annual savings are $%s: payback, ROI and IRR are undefined", res.AnnualSavingsUSD.StringFixed(2)))
	} else {
		flows := CashFlows(netCost, annual, fc)
		res.ROIYears = Years(capex / annual)
		res.TenYearROI = Ratio((annual*roiHorizonYears - capex) / capex)
		res.NPVUSD = money(NPV(fc.DiscountRate, flows))
		res.IRR = Ratio(IRR(flows))
		if !res.IRR.Defined() {
			res.Warnings = append(res.Warnings, "IRR did not converge")
		}
	}

	if solarKWhYear > 0 {
		rate, _ := t.RateFor(in.State)
		avoided, err := greenops.Avoided(solarKWhYear, rate.CO2KgPerKWh)
		if err == nil {
			res.Emissions = &avoided
		} else {
			log.Warn().Ctx(ctx).Str("component", "pricing").Err(err).Msg("emissions estimate skipped")
		}
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "pricing").
		Str("operation", "quote").
		Float64("peak_kw", in.PeakLoadKW).
		Str("capex_usd", res.CapexUSD.String()).
		Str("annual_savings_usd", res.AnnualSavingsUSD.String()).
		Stringer("roi_years", res.ROIYears).
		Msg("pricing quote complete")

	return res, nil
}

// size derives equipment sizes from the profile and grid situation.
func (t *Table) size(in Input) Sizing {
	fc := t.Financial
	var s Sizing

	switch in.GridConnection {
	case "off_grid", "microgrid":
		s.BatteryKW = in.PeakLoadKW
	default:
		s.BatteryKW = in.PeakLoadKW * fc.PeakShavingFraction
	}
	if in.GridConnection == "limited" && in.GridCapacityKW > 0 {
		s.BatteryKW = math.Max(s.BatteryKW, in.PeakLoadKW-in.GridCapacityKW)
	}

	s.BackupHours = t.BackupHoursFor(in.GridConnection)
	s.BatteryKWh = s.BatteryKW * s.BackupHours
	s.InverterKW = s.BatteryKW

	if in.IncludeSolar && fc.PeakSunHours > 0 {
		s.SolarKW = in.EnergyKWhPerDay * fc.SolarOffsetFraction / fc.PeakSunHours
	}

	switch in.GridConnection {
	case "unreliable", "off_grid", "microgrid":
		s.GeneratorKW = in.PeakLoadKW * fc.GeneratorReserveFactor
	}
	return s
}

type savingsBreakdown struct {
	arbitrage, demand, gridServices, solar float64
}

func (s savingsBreakdown) total() float64 {
	return s.arbitrage + s.demand + s.gridServices + s.solar
}

// savings returns first-year savings and the solar energy produced per year.
func (t *Table) savings(in Input, s Sizing) (savingsBreakdown, float64) {
	fc := t.Financial
	var out savingsBreakdown

	peakRate := in.ElectricityRate
	offPeakRate := peakRate * fc.OffPeakRatio
	out.arbitrage = s.BatteryKWh * fc.CyclesPerYear * (peakRate - offPeakRate) * fc.RoundTripEfficiency

	out.demand = s.BatteryKW * fc.DemandReductionFactor * in.DemandCharge * 12

	if in.GridServices {
		out.gridServices = s.BatteryKW * fc.GridServiceRevenuePerKWYear
	}

	solarKWhYear := s.SolarKW * fc.PeakSunHours * 365
	out.solar = solarKWhYear * in.ElectricityRate

	return out, solarKWhYear
}

// money rounds a dollar amount to cents.
func money(f float64) decimal.Decimal {
	if !isFinite(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f).Round(2)
}
