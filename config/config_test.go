package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		require.NoError(t, Default().Validate())
	})

	t.Run("buffer bounds", func(t *testing.T) {
		for _, size := range []int{MinBufferSize - 1, MaxBufferSize + 1, 0} {
			cfg := Default()
			cfg.Buffer.Size = size
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		}

		for _, size := range []int{MinBufferSize, MaxBufferSize} {
			cfg := Default()
			cfg.Buffer.Size = size
			require.NoError(t, cfg.Validate())
		}
	})

	t.Run("pool", func(t *testing.T) {
		cfg := Default()
		cfg.Pool.Max = cfg.Pool.Initial - 1
		require.ErrorIs(t, cfg.Validate(), ErrInvalid)

		cfg = Default()
		cfg.Pool.Initial = 0
		require.ErrorIs(t, cfg.Validate(), ErrInvalid)
	})
}
