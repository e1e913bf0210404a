package pixel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParamsLookup(t *testing.T) {
	p := Default()

	id, err := p.ID("qstr~en")
	require.NoError(t, err)
	require.Equal(t, uint64(102), id)

	name, err := p.Name(11)
	require.NoError(t, err)
	require.Equal(t, "i", name)

	_, err = p.ID("bogus")
	require.ErrorIs(t, err, ErrUnknownParam)
	_, err = p.Name(9999)
	require.ErrorIs(t, err, ErrUnknownParam)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	p := NewParams()
	p.Register("a", 1)
	require.Panics(t, func() { p.Register("a", 2) })
	require.Panics(t, func() { p.Register("b", 1) })
}
