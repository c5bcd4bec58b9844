package templates

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/merlin-energy/truequote/internal/logging"
)

// questionQuery joins the question store's use cases with their questions.
// It uses no placeholders so the same text runs on Postgres and SQLite.
const questionQuery = `
SELECT u.slug, u.name, u.calculator_id,
       q.field_name, q.question_text, q.question_type, q.default_value,
       q.options, q.unit, q.help_text, q.is_required
FROM use_cases u
LEFT JOIN custom_questions q ON q.use_case_id = u.id
WHERE u.is_active
ORDER BY u.slug, q.display_order, q.field_name`

// OpenDB opens the question store named by dsn. "postgres://" and
// "postgresql://" DSNs use lib/pq; "sqlite://path" or a bare path uses
// modernc.org/sqlite.
func OpenDB(dsn string) (*sql.DB, error) {
	driver, source := "sqlite", strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, source = "postgres", dsn
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening %s question store: %w", driver, err)
	}
	return db, nil
}

// SQLSource reads templates from the use_cases and custom_questions tables.
// The schema is owned elsewhere; only the columns in questionQuery are read.
type SQLSource struct {
	DB    *sql.DB
	Label string
}

// Name implements Source.
func (s SQLSource) Name() string {
	if s.Label != "" {
		return "sql:" + s.Label
	}
	return "sql"
}

// Load implements Source.
func (s SQLSource) Load(ctx context.Context) ([]IndustryTemplate, error) {
	log := logging.FromContext(ctx)

	rows, err := s.DB.QueryContext(ctx, questionQuery)
	if err != nil {
		return nil, fmt.Errorf("querying question store: %w", err)
	}
	defer rows.Close()

	var (
		out   []IndustryTemplate
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			slug, name, calc                          string
			field, text, qtype, def, opts, unit, help sql.NullString
			required                                  sql.NullBool
		)
		if scanErr := rows.Scan(&slug, &name, &calc,
			&field, &text, &qtype, &def, &opts, &unit, &help, &required); scanErr != nil {
			return nil, fmt.Errorf("scanning question row: %w", scanErr)
		}

		i, ok := index[slug]
		if !ok {
			out = append(out, IndustryTemplate{IndustryID: slug, DisplayName: name, CalculatorID: calc})
			i = len(out) - 1
			index[slug] = i
		}
		if !field.Valid || field.String == "" {
			continue
		}

		desc := FieldDescriptor{
			Name:     field.String,
			Type:     mapQuestionType(qtype.String),
			Default:  decodeDefault(def.String),
			Required: required.Valid && required.Bool,
			Options:  decodeOptions(opts.String),
			Unit:     unit.String,
			Question: text.String,
			Help:     help.String,
		}
		out[i].ExpectedFields = append(out[i].ExpectedFields, desc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("reading question rows: %w", err)
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "templates").
		Str("operation", "sql_load").
		Int("use_cases", len(out)).
		Msg("loaded templates from question store")

	return out, nil
}

// mapQuestionType folds the question store's UI widget names onto field types.
func mapQuestionType(t string) FieldType {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "number", "slider", "range", "decimal":
		return FieldNumber
	case "integer", "count":
		return FieldInteger
	case "select", "radio", "dropdown":
		return FieldSelect
	case "boolean", "toggle", "checkbox", "yes_no":
		return FieldBoolean
	case "multiselect", "multi_select", "checkboxes":
		return FieldMultiSelect
	default:
		return FieldText
	}
}

// decodeDefault reads default_value as JSON when it parses, otherwise as a
// plain string.
func decodeDefault(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// decodeOptions accepts either ["a","b"] or [{"value":"a","label":"A"}].
func decodeOptions(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var plain []string
	if err := json.Unmarshal([]byte(raw), &plain); err == nil {
		return plain
	}
	var labelled []struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal([]byte(raw), &labelled); err != nil {
		return nil
	}
	out := make([]string, 0, len(labelled))
	for _, o := range labelled {
		out = append(out, o.Value)
	}
	return out
}
