package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeEqualsVisitsEveryPosition(t *testing.T) {
	const ref = "0123456789abcdef0123456789abcdef"

	for pos := range len(ref) {
		other := []byte(ref)
		other[pos] = 'X'

		var visited []int
		require.False(t, safeEquals(ref, string(other), func(i int) { visited = append(visited, i) }))
		require.Len(t, visited, len(ref), "mismatch at %d must not stop the comparison", pos)
	}

	var visited int
	require.True(t, safeEquals(ref, ref, func(int) { visited++ }))
	require.Equal(t, len(ref), visited)
}

func TestSafeEqualsLengthMismatchShortCircuits(t *testing.T) {
	var visited int
	require.False(t, safeEquals("abc", "abcd", func(int) { visited++ }))
	require.Zero(t, visited)
}
