package funcutil

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	a := map[string]int{"x": 1, "y": 2}
	Merge(a, map[string]int{"y": 10, "z": 3}, func(x, y int) int { return x + y })
	assert.Equal(t, map[string]int{"x": 1, "y": 12, "z": 3}, a)
}

func TestUnion(t *testing.T) {
	a := map[string]bool{"x": true}
	got := Union(a, map[string]bool{"y": true})
	assert.Equal(t, map[string]bool{"x": true, "y": true}, a)
	assert.Equal(t, map[string]bool{"x": true, "y": true}, got)
}

func TestMap(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, Map([]int{1, 2, 3}, strconv.Itoa))
	assert.Empty(t, Map(nil, strconv.Itoa))
}

func TestExists(t *testing.T) {
	assert.True(t, Exists([]int{1, 2, 3}, func(x int) bool { return x > 2 }))
	assert.False(t, Exists([]int{1, 2, 3}, func(x int) bool { return x > 3 }))
	assert.False(t, Exists(nil, func(x int) bool { return true }))
}
