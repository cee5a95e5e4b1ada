package timer

import (
	"sync/atomic"
	"time"
)

// Time contains the unix-time in milliseconds updated every [Resolution] milliseconds
var Time = new(atomic.Int64)

var date atomic.Pointer[string]

func Now() time.Time {
	millis := Time.Load()
	return time.Unix(millis/1000, (millis%1000)*1e6)
}

// Date returns the value for the Date response header. It is reformatted at most once
// per second, so concurrent connections share the same string.
func Date() string {
	return *date.Load()
}

// DateFormat is RFC 1123 with the zone fixed to GMT, as HTTP requires.
const DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Resolution is the frequency at which time is updated. Default 500ms are
// precise enough for setting I/O deadlines and for the Date header
const Resolution = 500 * time.Millisecond

func init() {
	// there is no guarantee that the goroutine will be started immediately. If it won't,
	// some rapid usage of the timer will result in zero-time, which isn't great actually
	now := time.Now()
	tick(now, -1)

	go func() {
		last := now.Unix()
		for {
			time.Sleep(Resolution)
			last = tick(time.Now(), last)
		}
	}()
}

func tick(now time.Time, lastSecond int64) int64 {
	Time.Store(now.UnixMilli())

	if sec := now.Unix(); sec != lastSecond {
		formatted := formatDate(now)
		date.Store(&formatted)
		return sec
	}

	return lastSecond
}

func formatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}
