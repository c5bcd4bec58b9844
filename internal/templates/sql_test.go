package templates

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merlin-energy/truequote/internal/engine/cache"
)

const questionStoreFixture = `
CREATE TABLE use_cases (
  id INTEGER PRIMARY KEY,
  slug TEXT NOT NULL,
  name TEXT NOT NULL,
  calculator_id TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT 1
);
CREATE TABLE custom_questions (
  id INTEGER PRIMARY KEY,
  use_case_id INTEGER NOT NULL REFERENCES use_cases(id),
  field_name TEXT NOT NULL,
  question_text TEXT,
  question_type TEXT,
  default_value TEXT,
  options TEXT,
  unit TEXT,
  help_text TEXT,
  is_required BOOLEAN DEFAULT 0,
  display_order INTEGER DEFAULT 0
);
INSERT INTO use_cases (id, slug, name, calculator_id, is_active) VALUES
  (1, 'hotel', 'Hotel', 'hotel', 1),
  (2, 'car_wash', 'Car Wash', 'car_wash', 1),
  (3, 'casino', 'Casino', 'casino', 0);
INSERT INTO custom_questions
  (use_case_id, field_name, question_text, question_type, default_value, options, unit, help_text, is_required, display_order)
VALUES
  (1, 'rooms', 'Number of rooms', 'slider', '150', NULL, 'rooms', NULL, 1, 1),
  (1, 'hotelClass', 'Hotel class', 'select', '"midscale"',
     '[{"value":"economy","label":"Economy"},{"value":"midscale","label":"Midscale"}]', NULL, NULL, 0, 2),
  (1, 'amenities', 'Amenities', 'multiselect', '["pool"]', '["pool","spa"]', NULL, NULL, 0, 3),
  (1, 'gridConnection', 'Grid connection quality', 'select', 'unreliable',
     '["reliable","unreliable","limited","off_grid","microgrid"]', NULL, 'Affects backup sizing', 1, 4);
`

func openQuestionStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB("sqlite://" + filepath.Join(t.TempDir(), "questions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(questionStoreFixture)
	require.NoError(t, err)
	return db
}

func TestSQLSource(t *testing.T) {
	db := openQuestionStore(t)

	reg, err := NewRegistry(context.Background(), SQLSource{DB: db, Label: "test"})
	require.NoError(t, err)
	assert.Equal(t, []string{"car_wash", "hotel"}, reg.IDs(), "inactive use cases are skipped")

	hotel, err := reg.GetTemplate("hotel")
	require.NoError(t, err)

	rooms, ok := hotel.Field("rooms")
	require.True(t, ok)
	assert.Equal(t, FieldNumber, rooms.Type)
	assert.InDelta(t, 150.0, rooms.Default, 1e-9)
	assert.True(t, rooms.Required)

	class, ok := hotel.Field("hotelClass")
	require.True(t, ok)
	assert.Equal(t, []string{"economy", "midscale"}, class.Options)
	assert.Equal(t, "midscale", class.Default)

	amenities, ok := hotel.Field("amenities")
	require.True(t, ok)
	assert.Equal(t, FieldMultiSelect, amenities.Type)
	assert.Equal(t, []any{"pool"}, amenities.Default)

	grid, ok := hotel.Field(FieldGridConnection)
	require.True(t, ok)
	assert.Equal(t, "unreliable", grid.Default, "plain-text defaults are kept as strings")
	assert.Equal(t, "Affects backup sizing", grid.Help)

	carWash, err := reg.GetTemplate("car_wash")
	require.NoError(t, err)
	_, ok = carWash.Field(FieldOperatingHours)
	assert.True(t, ok, "use cases without questions still get universal fields")
}

func TestCachedSource(t *testing.T) {
	db := openQuestionStore(t)
	store, err := cache.NewFileStore(filepath.Join(t.TempDir(), "cache"), true, 3600)
	require.NoError(t, err)

	src := CachedSource{Source: SQLSource{DB: db, Label: "test"}, Store: store}
	first, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The snapshot must be served without touching the database.
	require.NoError(t, db.Close())
	second, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, first[0].IndustryID, second[0].IndustryID)
}

func TestCachedSource_DisabledStorePassesThrough(t *testing.T) {
	db := openQuestionStore(t)
	store, err := cache.NewFileStore("", false, 0)
	require.NoError(t, err)

	list, err := CachedSource{Source: SQLSource{DB: db}, Store: store}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
