package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 12}
	assert.Equal(t, Span{File: 1, Start: 5, End: 20}, a.Cover(b))

	other := Span{File: 2, Start: 0, End: 100}
	assert.Equal(t, a, a.Cover(other), "spans from different files are not merged")
}

func TestSpanContainsAndOverlaps(t *testing.T) {
	outer := Span{Start: 0, End: 10}
	tests := []struct {
		name     string
		inner    Span
		contains bool
		overlaps bool
	}{
		{name: "nested", inner: Span{Start: 2, End: 4}, contains: true, overlaps: true},
		{name: "same range", inner: Span{Start: 0, End: 10}, contains: true, overlaps: true},
		{name: "straddles end", inner: Span{Start: 8, End: 12}, contains: false, overlaps: true},
		{name: "adjacent", inner: Span{Start: 10, End: 12}, contains: false, overlaps: false},
		{name: "empty inside", inner: Span{Start: 3, End: 3}, contains: true, overlaps: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.contains, outer.Contains(tt.inner))
			assert.Equal(t, tt.overlaps, outer.Overlaps(tt.inner))
		})
	}
}

func TestSpanText(t *testing.T) {
	content := []byte("foo.$;")
	assert.Equal(t, "foo", Span{Start: 0, End: 3}.Text(content))
	assert.Equal(t, "$", Span{Start: 4, End: 5}.Text(content))
	assert.Equal(t, "", Span{Start: 4, End: 50}.Text(content))
	assert.True(t, Span{Start: 4, End: 4}.Empty())
	assert.Equal(t, uint32(2), Span{Start: 4, End: 6}.Len())
}
