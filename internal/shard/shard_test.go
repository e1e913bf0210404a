package shard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	const total = 8
	shards := make([]Range, total)
	for i := range shards {
		shards[i] = New(uint64(i), total)
	}
	// Every uid belongs to exactly one shard.
	for i := 0; i < 1000; i++ {
		uid := fmt.Sprintf("u%d", i)
		owners := 0
		for _, s := range shards {
			if s.Accept(uid) {
				owners++
			}
		}
		require.Equal(t, 1, owners, "uid %s", uid)
	}
}

func TestAll(t *testing.T) {
	s := All()
	for i := 0; i < 100; i++ {
		require.True(t, s.Accept(fmt.Sprintf("u%d", i)))
	}
	require.Equal(t, "all", s.String())
}

func TestParse(t *testing.T) {
	s, err := Parse("")
	require.NoError(t, err)
	require.True(t, s.Accept("anything"))

	s, err = Parse("3/8")
	require.NoError(t, err)
	require.Equal(t, "3/8", s.String())

	for _, spec := range []string{"x", "1", "a/b", "8/8", "1/0"} {
		_, err := Parse(spec)
		require.ErrorIs(t, err, ErrBadSpec, "spec %q", spec)
	}
}

func TestDeterministic(t *testing.T) {
	s := New(2, 4)
	for i := 0; i < 50; i++ {
		uid := fmt.Sprintf("user-%d", i)
		require.Equal(t, s.Accept(uid), s.Accept(uid))
	}
}
