package logging

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestStd(t *testing.T) {
	color.NoColor = true

	t.Run("filters by level", func(t *testing.T) {
		buff := new(bytes.Buffer)
		l := New(buff, Warn)
		l.Debugf("hidden %d", 1)
		l.Infof("hidden %d", 2)
		l.Warnf("slot %d closed", 3)
		l.Errorf("bind failed: %s", "boom")

		out := buff.String()
		require.NotContains(t, out, "hidden")
		require.Contains(t, out, "WARNING: slot 3 closed")
		require.Contains(t, out, "ERROR: bind failed: boom")
	})

	t.Run("silent", func(t *testing.T) {
		buff := new(bytes.Buffer)
		New(buff, Silent).Errorf("nothing")
		require.Zero(t, buff.Len())
	})

	t.Run("nop", func(t *testing.T) {
		require.NotPanics(t, func() {
			Nop().Errorf("%s", "whatever")
		})
	})
}
