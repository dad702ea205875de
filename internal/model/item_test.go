package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		value any
		name  string
		want  float64
		ok    bool
	}{
		{name: "plain number string", value: "199.99", want: 199.99, ok: true},
		{name: "dollar sign", value: "$249.50", want: 249.50, ok: true},
		{name: "thousands separator", value: "1,250.00", want: 1250, ok: true},
		{name: "float", value: 42.5, want: 42.5, ok: true},
		{name: "int", value: 100, want: 100, ok: true},
		{name: "garbage", value: "n/a", ok: false},
		{name: "empty string", value: "", ok: false},
		{name: "nil", value: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestItemSetField(t *testing.T) {
	t.Run("typed fields", func(t *testing.T) {
		item := &Item{}
		assert.True(t, item.SetField("manufacturer", "Lenovo"))
		assert.True(t, item.SetField("model", " T490 "))
		assert.Equal(t, "Lenovo", item.Manufacturer)
		assert.Equal(t, "T490", item.Model)
	})

	t.Run("battery sets has_battery", func(t *testing.T) {
		item := &Item{}
		assert.True(t, item.SetField("battery", "Good"))
		assert.True(t, item.HasBattery)
	})

	t.Run("unit price parses currency", func(t *testing.T) {
		item := &Item{}
		assert.True(t, item.SetField("unit_price", "$150.00"))
		require.NotNil(t, item.UnitPrice)
		assert.InDelta(t, 150.0, *item.UnitPrice, 0.001)
	})

	t.Run("unparseable price leaves field nil", func(t *testing.T) {
		item := &Item{}
		assert.True(t, item.SetField("unit_price", "call us"))
		assert.Nil(t, item.UnitPrice)
	})

	t.Run("unknown field", func(t *testing.T) {
		item := &Item{}
		assert.False(t, item.SetField("warranty", "1yr"))
	})
}

func TestItemFieldValue(t *testing.T) {
	item := &Item{
		Manufacturer: "Dell",
		MappedData:   map[string]any{"model": "Latitude 5490"},
	}

	assert.Equal(t, "Latitude 5490", item.FieldValue("model"), "mapped data wins")
	assert.Equal(t, "Dell", item.FieldValue("manufacturer"), "typed attribute fallback")
	assert.Equal(t, "", item.FieldValue("memory"))
}

func TestItemEffectiveStatus(t *testing.T) {
	groupID := int64(7)

	item := &Item{Status: ItemValidated}
	assert.Equal(t, ItemValidated, item.EffectiveStatus())
	assert.False(t, item.IsFamilyMapped())

	item.FamilyMappedGroupID = &groupID
	assert.Equal(t, ItemMapped, item.EffectiveStatus())
	assert.True(t, item.IsFamilyMapped())
}
