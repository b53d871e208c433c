package alignment_test

import (
	"testing"

	"github.com/dalemusser/valuesdao/internal/app/services/alignment"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		source  []string
		partner []string
		want    float64
	}{
		{"half overlap", []string{"honesty"}, []string{"honesty", "courage"}, 50},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 100},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"both empty", nil, nil, 0},
		{"source empty", nil, []string{"a"}, 0},
		{"duplicate source capped", []string{"a", "a"}, []string{"a"}, 100},
		{"duplicate source counted", []string{"a", "a", "b"}, []string{"a", "c"}, 200.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, alignment.Score(tt.source, tt.partner), 1e-9)
		})
	}
}

func TestScore_SymmetricForSets(t *testing.T) {
	pairs := [][2][]string{
		{{"honesty"}, {"honesty", "courage"}},
		{{"a", "b", "c"}, {"c", "d"}},
		{{}, {"x"}},
		{{"kindness", "grit"}, {"grit", "kindness"}},
	}
	for _, p := range pairs {
		assert.InDelta(t, alignment.Score(p[0], p[1]), alignment.Score(p[1], p[0]), 1e-9, "pair %v", p)
	}
}

func TestScore_SelfIsHundred(t *testing.T) {
	for _, set := range [][]string{{"a"}, {"a", "b", "c"}} {
		assert.Equal(t, float64(100), alignment.Score(set, set))
	}
}
