package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "lenovo thinkpad t490", b: "lenovo thinkpad t490", want: 1},
		{name: "both empty", a: "", b: "", want: 1},
		{name: "one empty", a: "lenovo", b: "", want: 0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0},
		{name: "shifted block", a: "abcd", b: "bcde", want: 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SimilarityRatio(tt.a, tt.b), 0.0001)
		})
	}

	t.Run("symmetric in coverage", func(t *testing.T) {
		assert.InDelta(t,
			SimilarityRatio("lenovo thinkpad t490", "lenovo thinkpad t480"),
			SimilarityRatio("lenovo thinkpad t480", "lenovo thinkpad t490"),
			0.0001)
	})

	t.Run("near names clear the reuse threshold", func(t *testing.T) {
		ratio := SimilarityRatio("lenovo thinkpad t490", "lenovo thinkpad t490s")
		assert.Greater(t, ratio, 0.8)

		ratio = SimilarityRatio("lenovo thinkpad t490", "hp elitebook 840")
		assert.Less(t, ratio, 0.8)
	})
}
