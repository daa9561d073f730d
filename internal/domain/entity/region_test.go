package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegionAreaAndCenter(t *testing.T) {
	r := Region{X: 10, Y: 20, Width: 8, Height: 6}
	require.Equal(t, 48, r.Area())
	x, y := r.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
}

func TestDensestRegion_Empty(t *testing.T) {
	_, found := DensestRegion(nil)
	require.False(t, found)
}

func TestDensestRegion_PicksLargestArea(t *testing.T) {
	regions := []Region{
		{Width: 10, Height: 10},
		{Width: 30, Height: 20},
		{Width: 25, Height: 20},
	}
	best, found := DensestRegion(regions)
	require.True(t, found)
	require.Equal(t, 600, best.Area())
}
