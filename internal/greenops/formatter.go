package greenops

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups thousands with the English separator.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators: 18248 → "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats f with precision decimals and thousand separators:
// FormatFloat(1234.567, 2) → "1,234.57".
func FormatFloat(f float64, precision int) string {
	return printer.Sprintf("%.*f", precision, f)
}

// FormatLarge abbreviates values of a million or more ("~1.5 billion") and
// falls back to FormatNumber below that.
func FormatLarge(n float64) string {
	switch {
	case n >= BillionThreshold:
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	case n >= LargeNumberThreshold:
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	default:
		return FormatNumber(int64(n + 0.5))
	}
}
