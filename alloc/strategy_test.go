package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrowth(t *testing.T) {
	g := Growth{Start: 4, Delta: 8, Max: 20, KeepFree: 2}

	tcs := []struct {
		Name               string
		Current, Connected int
		Want               int
	}{
		{"empty pool", 0, 0, 4},
		{"enough idle", 4, 2, 0},
		{"below the low-water mark", 4, 3, 8},
		{"all busy", 12, 12, 8},
		{"clamped by max", 16, 15, 4},
		{"at max", 20, 20, 0},
		{"over max", 24, 24, 0},
	}

	for _, tc := range tcs {
		t.Run(tc.Name, func(t *testing.T) {
			require.Equal(t, tc.Want, g.NewSlots(tc.Current, tc.Connected))
		})
	}

	t.Run("start above max", func(t *testing.T) {
		require.Equal(t, 3, Growth{Start: 10, Max: 3}.NewSlots(0, 0))
	})
}

func TestFixed(t *testing.T) {
	require.Equal(t, 16, Fixed(16).NewSlots(0, 0))
	require.Zero(t, Fixed(16).NewSlots(16, 16))
}
