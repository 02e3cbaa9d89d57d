package helper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapguard/analyzer/internal/helper"
)

func TestInsertAscendingKeepsBothEntriesOnTie(t *testing.T) {
	s := helper.NewTopNSorter[int64, string](2)
	s.InsertAscending(100, "A")
	s.InsertAscending(100, "B")

	require.Equal(t, 2, s.Len())
	assert.ElementsMatch(t, []string{"A", "B"}, s.Values())
}

func TestInsertAscendingDescendingOrder(t *testing.T) {
	s := helper.NewTopNSorter[int64, string](3)
	s.InsertAscending(10, "small")
	s.InsertAscending(30, "big")
	s.InsertAscending(20, "medium")

	assert.Equal(t, []string{"big", "medium", "small"}, s.ValuesDescending())
}

func TestInsertAscendingTrimsBeyondCapacity(t *testing.T) {
	s := helper.NewTopNSorter[int64, string](2)
	s.InsertAscending(10, "small")
	s.InsertAscending(30, "big")
	s.InsertAscending(20, "medium")

	require.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"big", "medium"}, s.ValuesDescending())
}
