package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// notApplicable is how undefined figures are rendered.
const notApplicable = "N/A"

// Years is a duration in years that may be undefined (infinite or NaN),
// for example the payback of a system that saves nothing. Undefined values
// encode as JSON null and print as "N/A"; they are never reported as 0.
type Years float64

// UndefinedYears is the value of a payback that never happens.
var UndefinedYears = Years(math.Inf(1))

// Defined reports whether y is a finite number.
func (y Years) Defined() bool { return isFinite(float64(y)) }

func (y Years) String() string {
	if !y.Defined() {
		return notApplicable
	}
	return fmt.Sprintf("%.1f yrs", float64(y))
}

// MarshalJSON implements json.Marshaler.
func (y Years) MarshalJSON() ([]byte, error) { return marshalFigure(float64(y), 2) }

// UnmarshalJSON implements json.Unmarshaler.
func (y *Years) UnmarshalJSON(b []byte) error {
	f, err := unmarshalFigure(b)
	*y = Years(f)
	return err
}

// Ratio is a fraction (0.12 = 12%) that may be undefined.
type Ratio float64

// UndefinedRatio is a ratio with no meaningful value.
var UndefinedRatio = Ratio(math.NaN())

// Defined reports whether r is a finite number.
func (r Ratio) Defined() bool { return isFinite(float64(r)) }

func (r Ratio) String() string {
	if !r.Defined() {
		return notApplicable
	}
	return fmt.Sprintf("%.1f%%", float64(r)*100)
}

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) { return marshalFigure(float64(r), 4) }

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ratio) UnmarshalJSON(b []byte) error {
	f, err := unmarshalFigure(b)
	*r = Ratio(f)
	return err
}

func marshalFigure(f float64, places int) ([]byte, error) {
	if !isFinite(f) {
		return []byte("null"), nil
	}
	scale := math.Pow(10, float64(places))
	return json.Marshal(math.Round(f*scale) / scale)
}

func unmarshalFigure(b []byte) (float64, error) {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return math.Inf(1), nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, err
	}
	return f, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
