package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraph_AddEdge_RejectsSelfLoop(t *testing.T) {
	g := NewGraph()
	ok := g.AddEdge(&TransitEdge{Source: "A", Target: "A", WeightS: 10, Mode: ModeBus, Line: "1"})
	assert.False(t, ok)
	assert.Empty(t, g.Adjacency["A"])
}

func TestGraph_AddEdge_DedupesByLine(t *testing.T) {
	g := NewGraph()
	first := g.AddEdge(&TransitEdge{Source: "A", Target: "B", WeightS: 10, Mode: ModeBus, Line: "1"})
	second := g.AddEdge(&TransitEdge{Source: "A", Target: "B", WeightS: 99, Mode: ModeBus, Line: "1"})
	third := g.AddEdge(&TransitEdge{Source: "A", Target: "B", WeightS: 10, Mode: ModeBus, Line: "2"})

	assert.True(t, first)
	assert.False(t, second, "a second edge on the same (src,dst,line) must be rejected, first wins")
	assert.True(t, third, "a different line between the same pair is a distinct edge")
	assert.Len(t, g.Adjacency["A"], 2)
	assert.Equal(t, 10, g.Adjacency["A"][0].WeightS, "the first-written edge's weight must be kept")
}
