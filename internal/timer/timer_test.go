package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTime(t *testing.T) {
	const (
		threshold = 200 * time.Millisecond
		// use 1.5*Resolution in order to avoid test failures because of the Resolution+1ms error,
		// which happens rarely (approx. once every 20 runs), but better to not happen at all
		resolution = Resolution + Resolution/2
	)

	for range 2 * time.Second / threshold {
		now := Now()
		if time.Now().Sub(now) > resolution {
			require.Fail(t, "the timer is too slow")
		}

		time.Sleep(threshold)
	}
}

func TestDate(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		parsed, err := time.Parse(DateFormat, Date())
		require.NoError(t, err)
		require.WithinDuration(t, time.Now(), parsed, 2*time.Second)
	})

	t.Run("reformat only on a new second", func(t *testing.T) {
		base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		require.Equal(t, "Fri, 01 Mar 2024 10:00:00 GMT", formatDate(base))
		require.Equal(t, "Fri, 01 Mar 2024 10:00:00 GMT", formatDate(base.In(time.FixedZone("UTC+3", 3*3600))))

		sec := base.Unix()
		require.Equal(t, sec, tick(base.Add(300*time.Millisecond), sec))
		require.Equal(t, sec+1, tick(base.Add(time.Second), sec))
		tick(time.Now(), -1)
	})
}

func BenchmarkDate(b *testing.B) {
	for range b.N {
		_ = Date()
	}
}
