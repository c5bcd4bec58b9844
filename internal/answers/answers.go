// Package answers holds facility questionnaire answers and the coercing
// reader that calculators use to pull typed values out of them.
//
// Answers arrive loosely typed (JSON numbers, numeric strings, booleans as
// "yes"). The Reader never lets a missing or unparseable value become zero
// quietly: it substitutes the caller's default and records the substitution
// so it can be surfaced in the quote trace.
package answers

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// AnswerSet maps a field name to the value supplied for it.
type AnswerSet map[string]any

// Clone returns a shallow copy of the set.
func (a AnswerSet) Clone() AnswerSet {
	if a == nil {
		return AnswerSet{}
	}
	return maps.Clone(a)
}

// Has reports whether name carries a usable (non-nil, non-blank) value.
func (a AnswerSet) Has(name string) bool {
	v, ok := a[name]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// Keys returns the field names in sorted order.
func (a AnswerSet) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// InputError reports structurally invalid input: a negative count, an
// unknown enum value, a ratio outside its range.
type InputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %q (%v): %s", e.Field, e.Value, e.Reason)
}

// Invalid is shorthand for constructing an *InputError.
func Invalid(field string, value any, reason string, args ...any) *InputError {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return &InputError{Field: field, Value: value, Reason: reason}
}

// Reader reads typed values from an AnswerSet, recording every default it
// had to substitute.
type Reader struct {
	values    AnswerSet
	defaults  AnswerSet
	fallbacks map[string]any
}

// NewReader wraps values. The set is not copied; callers must not mutate it
// while the reader is in use.
func NewReader(values AnswerSet) *Reader {
	if values == nil {
		values = AnswerSet{}
	}
	return &Reader{values: values, fallbacks: map[string]any{}}
}

// WithDefaults sets per-field defaults, usually a template's, that take
// precedence over the default passed to each read. A default that does not
// coerce to the requested type is ignored.
func (r *Reader) WithDefaults(defaults AnswerSet) *Reader {
	r.defaults = defaults
	return r
}

// Fallbacks returns a copy of the defaults substituted so far, keyed by field.
func (r *Reader) Fallbacks() map[string]any {
	return maps.Clone(r.fallbacks)
}

// Values returns the underlying answer set.
func (r *Reader) Values() AnswerSet {
	return r.values
}

func (r *Reader) fallback(name string, def any) {
	if _, seen := r.fallbacks[name]; !seen {
		r.fallbacks[name] = def
	}
}

// Float returns name as a float64, or def when missing or unparseable.
func (r *Reader) Float(name string, def float64) float64 {
	if d, ok := toFloat(r.defaults[name]); ok {
		def = d
	}
	if !r.values.Has(name) {
		r.fallback(name, def)
		return def
	}
	f, ok := toFloat(r.values[name])
	if !ok {
		r.fallback(name, def)
		return def
	}
	return f
}

// NonNegative is Float that rejects values below zero.
func (r *Reader) NonNegative(name string, def float64) (float64, error) {
	f := r.Float(name, def)
	if f < 0 {
		return 0, Invalid(name, f, "must not be negative")
	}
	return f, nil
}

// Ratio is Float constrained to [0, 1]. Whole-number percentages (e.g. 75)
// are accepted and scaled down; a fractional value above 1 is ambiguous and
// rejected.
func (r *Reader) Ratio(name string, def float64) (float64, error) {
	f := r.Float(name, def)
	if f > 1 && f <= 100 {
		if !isWhole(f) {
			return 0, Invalid(name, f, "must be a fraction between 0 and 1 or a whole percentage")
		}
		f /= 100
	}
	if f < 0 || f > 1 {
		return 0, Invalid(name, f, "must be between 0 and 1")
	}
	return f, nil
}

// Int returns name as an int, or def. A value with a fractional part is
// unparseable.
func (r *Reader) Int(name string, def int) int {
	def = r.intDefault(name, def)
	if !r.values.Has(name) {
		r.fallback(name, def)
		return def
	}
	f, ok := toFloat(r.values[name])
	if !ok || !isWhole(f) {
		r.fallback(name, def)
		return def
	}
	return int(f)
}

// Count returns a non-negative whole-number count. Negative and fractional
// values are input errors.
func (r *Reader) Count(name string, def int) (int, error) {
	def = r.intDefault(name, def)
	if !r.values.Has(name) {
		r.fallback(name, def)
		return def, nil
	}
	f, ok := toFloat(r.values[name])
	switch {
	case !ok:
		r.fallback(name, def)
		return def, nil
	case f < 0:
		return 0, Invalid(name, f, "count must not be negative")
	case !isWhole(f):
		return 0, Invalid(name, f, "count must be a whole number")
	}
	return int(f), nil
}

// String returns name as a trimmed string, or def.
func (r *Reader) String(name, def string) string {
	if d, ok := r.defaults[name].(string); ok {
		def = d
	}
	if !r.values.Has(name) {
		r.fallback(name, def)
		return def
	}
	s, err := cast.ToStringE(r.values[name])
	if err != nil {
		r.fallback(name, def)
		return def
	}
	return strings.TrimSpace(s)
}

// Enum returns name if it is one of allowed. Matching ignores case and
// treats '-' and ' ' as '_'. An unrecognised value is an *InputError.
func (r *Reader) Enum(name, def string, allowed ...string) (string, error) {
	raw := r.String(name, def)
	norm := normalizeEnum(raw)
	for _, a := range allowed {
		if normalizeEnum(a) == norm {
			return a, nil
		}
	}
	return "", Invalid(name, raw, "must be one of %s", strings.Join(allowed, ", "))
}

// Bool returns name as a bool. "yes"/"no" and "on"/"off" are accepted.
func (r *Reader) Bool(name string, def bool) bool {
	if d, ok := r.defaults[name].(bool); ok {
		def = d
	}
	if !r.values.Has(name) {
		r.fallback(name, def)
		return def
	}
	v := r.values[name]
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y", "on":
			return true
		case "no", "n", "off":
			return false
		}
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		r.fallback(name, def)
		return def
	}
	return b
}

// Strings returns name as a list. A comma-separated string is split.
func (r *Reader) Strings(name string, def []string) []string {
	if d, ok := r.defaults[name]; ok && d != nil {
		if list, err := cast.ToStringSliceE(d); err == nil {
			def = list
		}
	}
	if !r.values.Has(name) {
		r.fallback(name, def)
		return def
	}
	v := r.values[name]
	if s, ok := v.(string); ok {
		var out []string
		for part := range strings.SplitSeq(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	list, err := cast.ToStringSliceE(v)
	if err != nil {
		r.fallback(name, def)
		return def
	}
	return list
}

// Hours reads an operating-hours answer, either a number of hours or a
// {start, end} object in 24h clock hours. The result is clamped to [0, 24].
func (r *Reader) Hours(name string, def float64) float64 {
	if d, ok := toFloat(r.defaults[name]); ok {
		def = clampHours(d)
	}
	if !r.values.Has(name) {
		r.fallback(name, def)
		return def
	}
	v := r.values[name]
	if span, ok := v.(map[string]any); ok {
		start, okStart := toFloat(span["start"])
		end, okEnd := toFloat(span["end"])
		if !okStart || !okEnd {
			r.fallback(name, def)
			return def
		}
		h := end - start
		if h <= 0 {
			h += 24
		}
		return clampHours(h)
	}
	f, ok := toFloat(v)
	if !ok {
		r.fallback(name, def)
		return def
	}
	return clampHours(f)
}

func (r *Reader) intDefault(name string, def int) int {
	if d, ok := toFloat(r.defaults[name]); ok && isWhole(d) {
		return int(d)
	}
	return def
}

func clampHours(h float64) float64 {
	return math.Max(0, math.Min(24, h))
}

// toFloat coerces v to a finite float64. Booleans are not numbers.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && isFinite(f)
	case string:
		t = strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		if t == "" {
			return 0, false
		}
		v = t
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || !isFinite(f) {
		return 0, false
	}
	return f, true
}

func isWhole(f float64) bool {
	return f == math.Trunc(f)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
