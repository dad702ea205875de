package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	t.Run("exact pattern match", func(t *testing.T) {
		got := Suggest([]string{"Serial Number", "Manufacturer", "Model"}, Fields)
		assert.Equal(t, "serial", got["Serial Number"])
		assert.Equal(t, "manufacturer", got["Manufacturer"])
		assert.Equal(t, "model", got["Model"])
	})

	t.Run("normalization ignores separators and case", func(t *testing.T) {
		got := Suggest([]string{"SERIAL_NUMBER", "condition-grade", "Service Tag"}, Fields)
		assert.Equal(t, "serial", got["SERIAL_NUMBER"])
		assert.Equal(t, "condition_grade", got["condition-grade"])
		assert.Equal(t, "serial", got["Service Tag"])
	})

	t.Run("substring match", func(t *testing.T) {
		got := Suggest([]string{"Device Manufacturer Name", "CPU"}, Fields)
		assert.Equal(t, "manufacturer", got["Device Manufacturer Name"])
		assert.Equal(t, "processor", got["CPU"])
	})

	t.Run("compound capacity headers", func(t *testing.T) {
		got := Suggest([]string{"Capacity (RAM)", "Drive Size"}, Fields)
		assert.Equal(t, "memory", got["Capacity (RAM)"])
		assert.Equal(t, "storage", got["Drive Size"])
	})

	t.Run("price headers map to unit price", func(t *testing.T) {
		got := Suggest([]string{"Sale $", "Retail Amount"}, Fields)
		assert.Equal(t, "unit_price", got["Sale $"])
		assert.Equal(t, "unit_price", got["Retail Amount"])
	})

	t.Run("unmatched columns map to empty", func(t *testing.T) {
		got := Suggest([]string{"Pallet Row", ""}, Fields)
		assert.Equal(t, "", got["Pallet Row"])
		assert.Equal(t, "", got[""])
	})

	t.Run("alternate catalog", func(t *testing.T) {
		catalog := []FieldSpec{
			{Value: FieldNotMapped, Patterns: []string{"ignore"}},
			{Value: "lot_number", Patterns: []string{"lotno", "lotnumber"}},
		}
		got := Suggest([]string{"Lot No", "Serial Number"}, catalog)
		assert.Equal(t, "lot_number", got["Lot No"])
		assert.Equal(t, "", got["Serial Number"])
	})

	t.Run("deterministic", func(t *testing.T) {
		columns := []string{"Serial", "Model", "RAM", "HDD", "Grade", "Price"}
		first := Suggest(columns, Fields)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Suggest(columns, Fields))
		}
	})
}

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "serialnumber", normalizeColumn("Serial_Number"))
	assert.Equal(t, "conditiongrade", normalizeColumn("Condition-Grade"))
	assert.Equal(t, "unitprice", normalizeColumn("Unit Price"))
}
