package templates

import "slices"

// Universal field names. Every template carries these; a template may
// redeclare one to override its default.
const (
	FieldFacilitySize    = "facilitySize"
	FieldOperatingHours  = "operatingHours"
	FieldPeakLoad        = "peakLoad"
	FieldGridConnection  = "gridConnection"
	FieldGridCapacity    = "gridCapacity"
	FieldElectricityRate = "electricityRate"
	FieldDemandCharge    = "demandCharge"
	FieldIncludeSolar    = "includeSolar"
	FieldGridServices    = "gridServices"
)

// Grid connection options.
const (
	GridReliable   = "reliable"
	GridUnreliable = "unreliable"
	GridLimited    = "limited"
	GridOffGrid    = "off_grid"
	GridMicrogrid  = "microgrid"
)

// GridConnections lists the accepted gridConnection values.
var GridConnections = []string{GridReliable, GridUnreliable, GridLimited, GridOffGrid, GridMicrogrid}

// universalFields returns a fresh copy on each call so callers may append.
func universalFields() []FieldDescriptor {
	return []FieldDescriptor{
		{
			Name: FieldFacilitySize, Type: FieldNumber, Default: 10000, Unit: "sq ft",
			Question: "Facility size (sq ft)", Help: "Total building/facility square footage",
		},
		{
			Name: FieldOperatingHours, Type: FieldNumber, Default: 12, Unit: "hours", Required: true,
			Question: "Daily operating hours", Help: "Hours per day the facility operates",
		},
		{
			Name: FieldPeakLoad, Type: FieldNumber, Default: 0, Unit: "MW",
			Question: "Peak power demand (if known)",
			Help:     "Actual peak load from a utility bill; 0 calculates it from the other answers",
		},
		{
			Name: FieldGridConnection, Type: FieldSelect, Default: GridReliable, Required: true,
			Options:  slices.Clone(GridConnections),
			Question: "Grid connection quality",
			Help:     "Grid quality affects backup requirements and generation needs",
		},
		{
			Name: FieldGridCapacity, Type: FieldNumber, Default: 0, Unit: "MW",
			Question: "Grid capacity available to the site",
			Help:     "Maximum import from the grid; 0 means unlimited",
		},
		{
			Name: FieldElectricityRate, Type: FieldNumber, Default: 0.13, Unit: "$/kWh",
			Question: "Average electricity rate",
		},
		{
			Name: FieldDemandCharge, Type: FieldNumber, Default: 15, Unit: "$/kW-month",
			Question: "Demand charge",
		},
		{
			Name: FieldIncludeSolar, Type: FieldBoolean, Default: false,
			Question: "Include on-site solar",
		},
		{
			Name: FieldGridServices, Type: FieldBoolean, Default: false,
			Question: "Enroll in grid services programs",
		},
	}
}

// withUniversalFields appends the universal fields that t does not declare.
func withUniversalFields(t IndustryTemplate) IndustryTemplate {
	declared := make(map[string]struct{}, len(t.ExpectedFields))
	fields := make([]FieldDescriptor, 0, len(t.ExpectedFields)+len(universalFields()))
	for _, f := range t.ExpectedFields {
		declared[f.Name] = struct{}{}
		fields = append(fields, f)
	}
	for _, u := range universalFields() {
		if _, ok := declared[u.Name]; !ok {
			fields = append(fields, u)
		}
	}
	t.ExpectedFields = fields
	return t
}
