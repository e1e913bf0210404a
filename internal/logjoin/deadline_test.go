package logjoin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeadlineTouchIsMonotonic(t *testing.T) {
	d := newDeadlineIndex()
	d.Touch("u1", 100)
	d.Touch("u1", 50)
	v, ok := d.Get("u1")
	require.True(t, ok)
	require.Equal(t, int64(100), v)

	d.Touch("u1", 200)
	v, _ = d.Get("u1")
	require.Equal(t, int64(200), v)
}

func TestDeadlineEvict(t *testing.T) {
	d := newDeadlineIndex()
	d.Touch("u1", 100)
	d.Touch("u2", 200)
	d.Touch("u3", 300)

	var evicted []string
	err := d.Evict(250, func(uid string) error {
		evicted = append(evicted, uid)
		return nil
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"u1", "u2"}, evicted)
	require.Equal(t, 1, d.Len())

	// The boundary is strict: a deadline equal to stream time stays.
	err = d.Evict(300, func(string) error { return nil })
	require.NoError(t, err)
	_, ok := d.Get("u3")
	require.True(t, ok)
}

func TestDeadlineEvictStopsOnError(t *testing.T) {
	d := newDeadlineIndex()
	d.Touch("u1", 100)
	errBoom := errTest{}
	err := d.Evict(200, func(string) error { return errBoom })
	require.ErrorIs(t, err, errBoom)
	// The entry survives a failed flush and is retried later.
	require.Equal(t, 1, d.Len())
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
