package pricing

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

//go:embed pricing.yaml
var embeddedTable []byte

// SupportedSchema is the semver constraint a pricing table must satisfy.
const SupportedSchema = "^1"

// Equipment types priced by the table.
const (
	Battery   = "battery"
	Inverter  = "inverter"
	Solar     = "solar"
	Generator = "generator"
)

// Sentinel errors.
var (
	ErrUnsupportedSchema = errors.New("unsupported pricing table schema")
	ErrInvalidTable      = errors.New("invalid pricing table")
	ErrUnitCostNotFound  = errors.New("unit cost not found")
)

// UnitCostNotFoundError reports a missing equipment entry or a size no
// scaleband covers.
type UnitCostNotFoundError struct {
	Equipment string
	Size      float64
}

func (e *UnitCostNotFoundError) Error() string {
	return fmt.Sprintf("no unit cost for %s at size %.1f", e.Equipment, e.Size)
}

// Is lets errors.Is match ErrUnitCostNotFound.
func (e *UnitCostNotFoundError) Is(target error) bool {
	return target == ErrUnitCostNotFound
}

// Scaleband is a price that applies to sizes up to MaxSize (0 = unbounded).
type Scaleband struct {
	MaxSize float64 `yaml:"maxSize" json:"maxSize"`
	Price   float64 `yaml:"price"   json:"price"`
}

// EquipmentPricing is the scaleband list for one equipment type.
type EquipmentPricing struct {
	Unit  string      `yaml:"unit"  json:"unit"`
	Bands []Scaleband `yaml:"bands" json:"bands"`
}

// UnitCost is the price resolved for a given equipment size.
type UnitCost struct {
	Equipment string  `json:"equipment"`
	Unit      string  `json:"unit"`
	Price     float64 `json:"price"`
}

// CostFor prices size units of equipment. Sizes are kW or kWh; "$/W"
// prices are converted from kW.
func (u UnitCost) CostFor(size float64) float64 {
	if u.Unit == "$/W" {
		return size * 1000 * u.Price
	}
	return size * u.Price
}

// FinancialConstants are the economic assumptions for a quote.
type FinancialConstants struct {
	ITCRate                     float64 `yaml:"itcRate"                     json:"itcRate"`
	DiscountRate                float64 `yaml:"discountRate"                json:"discountRate"`
	DegradationRate             float64 `yaml:"degradationRate"             json:"degradationRate"`
	EscalationRate              float64 `yaml:"escalationRate"              json:"escalationRate"`
	ProjectYears                int     `yaml:"projectYears"                json:"projectYears"`
	CyclesPerYear               float64 `yaml:"cyclesPerYear"               json:"cyclesPerYear"`
	RoundTripEfficiency         float64 `yaml:"roundTripEfficiency"         json:"roundTripEfficiency"`
	OffPeakRatio                float64 `yaml:"offPeakRatio"                json:"offPeakRatio"`
	InstallationRate            float64 `yaml:"installationRate"            json:"installationRate"`
	PeakShavingFraction         float64 `yaml:"peakShavingFraction"         json:"peakShavingFraction"`
	SolarOffsetFraction         float64 `yaml:"solarOffsetFraction"         json:"solarOffsetFraction"`
	PeakSunHours                float64 `yaml:"peakSunHours"                json:"peakSunHours"`
	GridServiceRevenuePerKWYear float64 `yaml:"gridServiceRevenuePerKWYear" json:"gridServiceRevenuePerKWYear"`
	GeneratorReserveFactor      float64 `yaml:"generatorReserveFactor"      json:"generatorReserveFactor"`
	DemandReductionFactor       float64 `yaml:"demandReductionFactor"       json:"demandReductionFactor"`
}

// UtilityRate is the tariff and grid intensity for a state.
type UtilityRate struct {
	Electricity float64 `yaml:"electricity" json:"electricity"`
	Demand      float64 `yaml:"demand"      json:"demand"`
	CO2KgPerKWh float64 `yaml:"co2KgPerKWh" json:"co2KgPerKWh"`
}

// Table is a versioned set of unit costs and constants. It is read-only
// after loading and safe to share between goroutines.
type Table struct {
	SchemaVersion string                      `yaml:"schemaVersion"`
	UnitCosts     map[string]EquipmentPricing `yaml:"unitCosts"`
	Financial     FinancialConstants          `yaml:"financial"`
	BackupHours   map[string]float64          `yaml:"backupHours"`
	UtilityRates  map[string]UtilityRate      `yaml:"utilityRates"`
}

// DefaultTable returns the table compiled into the binary.
func DefaultTable() (*Table, error) {
	return ParseTable(embeddedTable)
}

// LoadTable reads a table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pricing table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) validate() error {
	v, err := semver.NewVersion(t.SchemaVersion)
	if err != nil {
		return fmt.Errorf("%w: schemaVersion %q: %w", ErrUnsupportedSchema, t.SchemaVersion, err)
	}
	constraint, _ := semver.NewConstraint(SupportedSchema)
	if !constraint.Check(v) {
		return fmt.Errorf("%w: got %s, want %s", ErrUnsupportedSchema, v, SupportedSchema)
	}

	for name, eq := range t.UnitCosts {
		if len(eq.Bands) == 0 {
			return fmt.Errorf("%w: %s has no scalebands", ErrInvalidTable, name)
		}
		for i, b := range eq.Bands {
			if b.Price < 0 {
				return fmt.Errorf("%w: %s band %d has a negative price", ErrInvalidTable, name, i)
			}
			last := i == len(eq.Bands)-1
			if b.MaxSize == 0 && !last {
				return fmt.Errorf("%w: %s unbounded band must be last", ErrInvalidTable, name)
			}
			if i > 0 && b.MaxSize != 0 && b.MaxSize <= eq.Bands[i-1].MaxSize {
				return fmt.Errorf("%w: %s bands must be in ascending maxSize order", ErrInvalidTable, name)
			}
		}
	}

	f := t.Financial
	for label, rate := range map[string]float64{
		"itcRate": f.ITCRate, "degradationRate": f.DegradationRate,
		"roundTripEfficiency": f.RoundTripEfficiency, "offPeakRatio": f.OffPeakRatio,
		"peakShavingFraction": f.PeakShavingFraction, "solarOffsetFraction": f.SolarOffsetFraction,
		"demandReductionFactor": f.DemandReductionFactor,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1, got %g", ErrInvalidTable, label, rate)
		}
	}
	if f.ProjectYears <= 0 {
		return fmt.Errorf("%w: projectYears must be positive", ErrInvalidTable)
	}
	if f.DiscountRate <= -1 {
		return fmt.Errorf("%w: discountRate must be above -1", ErrInvalidTable)
	}
	if _, ok := t.UtilityRates[defaultRateKey]; !ok {
		return fmt.Errorf("%w: utilityRates needs a %q entry", ErrInvalidTable, defaultRateKey)
	}
	return nil
}

// GetUnitCost returns the price for equipment at size, choosing the first
// scaleband whose maxSize covers it.
func (t *Table) GetUnitCost(equipment string, size float64) (UnitCost, error) {
	eq, ok := t.UnitCosts[equipment]
	if !ok {
		return UnitCost{}, &UnitCostNotFoundError{Equipment: equipment, Size: size}
	}
	i := slices.IndexFunc(eq.Bands, func(b Scaleband) bool {
		return b.MaxSize == 0 || size <= b.MaxSize
	})
	if i < 0 {
		return UnitCost{}, &UnitCostNotFoundError{Equipment: equipment, Size: size}
	}
	return UnitCost{Equipment: equipment, Unit: eq.Unit, Price: eq.Bands[i].Price}, nil
}

// FinancialConstants returns the table's economic assumptions.
func (t *Table) FinancialConstants() FinancialConstants {
	return t.Financial
}

const defaultRateKey = "default"

// RateFor returns the utility rate for a two-letter state code and whether
// the state had its own entry. Unknown states get the default entry.
func (t *Table) RateFor(state string) (UtilityRate, bool) {
	if r, ok := t.UtilityRates[strings.ToUpper(strings.TrimSpace(state))]; ok && state != "" {
		return r, true
	}
	return t.UtilityRates[defaultRateKey], false
}

// BackupHoursFor returns the storage duration for a grid connection,
// defaulting to the reliable-grid value.
func (t *Table) BackupHoursFor(grid string) float64 {
	if h, ok := t.BackupHours[grid]; ok {
		return h
	}
	return t.BackupHours["reliable"]
}
