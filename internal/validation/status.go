package validation

import (
	"fmt"
	"strings"
)

// Status is the terminal state of one industry in a harness run.
type Status string

// Row statuses.
const (
	StatusPass     Status = "PASS"
	StatusPassWarn Status = "PASS_WARN"
	StatusFail     Status = "FAIL"
	StatusSkip     Status = "SKIP"
	StatusCrash    Status = "CRASH"
)

// statusSeverity orders statuses for aggregation. Higher is worse.
var statusSeverity = map[Status]int{ //nolint:gochecknoglobals // Constant lookup table
	StatusSkip:     0,
	StatusPass:     1,
	StatusPassWarn: 2,
	StatusFail:     3,
	StatusCrash:    4,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusSeverity[s]
	return ok
}

// ParseStatus parses a status name, ignoring case and accepting '-' for '_'.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Worst returns the more severe of a and b.
func Worst(a, b Status) Status {
	if statusSeverity[b] > statusSeverity[a] {
		return b
	}
	return a
}

// Severity of a single violation.
type Severity string

// Violation severities.
const (
	SeverityWarn Severity = "warn"
	SeverityFail Severity = "fail"
)

// Rule names used in violations.
const (
	RuleGlobal         = "global_invariant"
	RuleSumConsistency = "sum_consistency"
	RuleBand           = "contributor_band"
	RuleUniversal      = "universal_mix"
	RulePUE            = "pue_tracking"
	RuleROI            = "roi_defined"
	RuleConfiguration  = "configuration"
	RulePricing        = "pricing"
	RuleInput          = "input"
)

// Violation is one triggered check.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Rule, v.Message)
}
