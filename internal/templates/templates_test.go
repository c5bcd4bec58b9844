package templates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedRegistry(t *testing.T) {
	reg, err := NewRegistry(context.Background(), EmbeddedSource{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"car_wash", "data_center", "ev_charging", "hospital", "hotel", "office", "retail", "warehouse",
	}, reg.IDs())

	hotel, err := reg.GetTemplate("hotel")
	require.NoError(t, err)
	assert.Equal(t, "hotel", hotel.CalculatorID)

	t.Run("universal fields merged", func(t *testing.T) {
		for _, name := range []string{
			FieldFacilitySize, FieldOperatingHours, FieldPeakLoad, FieldGridConnection,
			FieldGridCapacity, FieldElectricityRate, FieldDemandCharge, FieldIncludeSolar, FieldGridServices,
		} {
			_, ok := hotel.Field(name)
			assert.True(t, ok, "hotel should carry %s", name)
		}
	})

	t.Run("template overrides universal default", func(t *testing.T) {
		hours, ok := hotel.Field(FieldOperatingHours)
		require.True(t, ok)
		assert.Equal(t, 24, hours.Default)

		office, getErr := reg.GetTemplate("office")
		require.NoError(t, getErr)
		hours, ok = office.Field(FieldOperatingHours)
		require.True(t, ok)
		assert.Equal(t, 12, hours.Default)
	})

	t.Run("defaults answer set", func(t *testing.T) {
		defs := hotel.Defaults()
		assert.Equal(t, "midscale", defs["hotelClass"])
		assert.Equal(t, GridReliable, defs[FieldGridConnection])
	})
}

func TestGetTemplate_NotFound(t *testing.T) {
	reg, err := NewRegistryFromTemplates(nil)
	require.NoError(t, err)

	_, err = reg.GetTemplate("casino")
	var notFound *TemplateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "casino", notFound.IndustryID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestNewRegistryFromTemplates_Validation(t *testing.T) {
	valid := func() IndustryTemplate {
		return IndustryTemplate{
			IndustryID:   "hotel",
			CalculatorID: "hotel",
			ExpectedFields: []FieldDescriptor{
				{Name: "rooms", Type: FieldInteger, Default: 100},
			},
		}
	}

	tests := []struct {
		name    string
		list    func() []IndustryTemplate
		wantMsg string
	}{
		{
			name:    "duplicate industry",
			list:    func() []IndustryTemplate { return []IndustryTemplate{valid(), valid()} },
			wantMsg: "duplicate industry id",
		},
		{
			name: "missing calculator",
			list: func() []IndustryTemplate {
				tmpl := valid()
				tmpl.CalculatorID = ""
				return []IndustryTemplate{tmpl}
			},
			wantMsg: "no calculator id",
		},
		{
			name: "duplicate field",
			list: func() []IndustryTemplate {
				tmpl := valid()
				tmpl.ExpectedFields = append(tmpl.ExpectedFields, tmpl.ExpectedFields[0])
				return []IndustryTemplate{tmpl}
			},
			wantMsg: "declares field \"rooms\" twice",
		},
		{
			name: "unknown type",
			list: func() []IndustryTemplate {
				tmpl := valid()
				tmpl.ExpectedFields[0].Type = "slider"
				return []IndustryTemplate{tmpl}
			},
			wantMsg: "unknown type",
		},
		{
			name: "select default outside options",
			list: func() []IndustryTemplate {
				tmpl := valid()
				tmpl.ExpectedFields = append(tmpl.ExpectedFields, FieldDescriptor{
					Name: "hotelClass", Type: FieldSelect, Default: "palace", Options: []string{"economy"},
				})
				return []IndustryTemplate{tmpl}
			},
			wantMsg: "is not one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistryFromTemplates(tt.list())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "templates.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - industryId: bakery
    displayName: Bakery
    calculatorId: commercial_building
    fields:
      - name: buildingType
        type: select
        default: retail
        options: [retail]
`), 0600))

		reg, err := NewRegistry(context.Background(), FileSource{Path: path})
		require.NoError(t, err)
		assert.Equal(t, []string{"bakery"}, reg.IDs())
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		path := filepath.Join(dir, "typo.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - industryId: bakery
    calculatorID: commercial_building
`), 0600))

		_, err := NewRegistry(context.Background(), FileSource{Path: path})
		assert.ErrorIs(t, err, ErrInvalidTemplate)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewRegistry(context.Background(), FileSource{Path: filepath.Join(dir, "nope.yaml")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}
