package export

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasMeaningfulData(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"empty map", map[string]any{}, false},
		{"map with number", map[string]any{"a": 1}, true},
		{"map with zero", map[string]any{"count": 0}, true},
		{"empty slice", []any{}, false},
		{"slice of nils and empties", []any{nil, map[string]any{}}, false},
		{"slice with one real entry", []any{nil, map[string]any{"a": 1}}, true},
		{"nested all empty", map[string]any{"a": map[string]any{"b": []any{}}}, false},
		{"nested with leaf", map[string]any{"a": map[string]any{"b": []any{1.5}}}, true},
		{"blank string", "   ", false},
		{"empty string", "", false},
		{"non-blank string", "x", true},
		{"boolean false", false, true},
		{"float zero", 0.0, true},
		{"NaN", math.NaN(), false},
		{"positive infinity", math.Inf(1), false},
		{"map with only NaN", map[string]any{"cpu": math.NaN()}, false},
		{"typed float map", map[string]float64{"cpu": 0.5}, true},
		{"typed empty float map", map[string]float64{}, false},
		{"typed string slice of blanks", []string{"", "  "}, false},
		{"typed string slice", []string{"", "node-1"}, true},
		{"struct with values", struct{ Name string }{Name: "n"}, true},
		{"struct all blank", struct{ Name string }{}, false},
		{"nil typed pointer", (*struct{ N int })(nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasMeaningfulData(tt.value))
		})
	}
}
