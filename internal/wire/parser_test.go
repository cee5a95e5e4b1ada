package wire

import (
	"slices"
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/google/go-cmp/cmp"
	"github.com/indigo-web/slotted/http/method"
	"github.com/indigo-web/slotted/http/proto"
	"github.com/indigo-web/slotted/http/status"
	"github.com/indigo-web/slotted/internal/buffer"
	"github.com/indigo-web/slotted/internal/requestgen"
	"github.com/stretchr/testify/require"
)

type line struct {
	Method        method.Method
	MethodName    string
	Path, Query   string
	Proto         proto.Proto
	ProtoName     string
	ContentLength uint64
	Chunked       bool
	KeepAlive     bool
	Expect100     bool
}

func summary(r *Request) line {
	return line{
		Method:        r.Method,
		MethodName:    r.MethodName,
		Path:          r.Path,
		Query:         r.Query,
		Proto:         r.Proto,
		ProtoName:     r.ProtoName,
		ContentLength: r.ContentLength,
		Chunked:       r.Chunked,
		KeepAlive:     r.KeepAlive,
		Expect100:     r.Expect100,
	}
}

func parse(raw string) (*Request, error) {
	req := NewRequest()
	data := []byte(raw)
	end := FindRequestEnd(data)
	if end == -1 {
		panic("incomplete request: " + raw)
	}

	return req, Parse(data[:end], req, buffer.New(len(data)))
}

func TestFindRequestEnd(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		raw := "GET / HTTP/1.1\r\nHost: x\r\n\r\nbody"
		require.Equal(t, len(raw)-len("body"), FindRequestEnd([]byte(raw)))
	})

	t.Run("incomplete", func(t *testing.T) {
		for _, raw := range []string{"", "GET / HTTP/1.1\r\n", "GET / HTTP/1.1\r\n\r", "a\r\n\rb\n"} {
			require.Equal(t, -1, FindRequestEnd([]byte(raw)), raw)
		}
	})

	t.Run("terminator split across receives", func(t *testing.T) {
		raw := []byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")
		for i := range raw {
			require.Equal(t, -1, FindRequestEnd(raw[:i]))
		}

		require.Equal(t, len(raw), FindRequestEnd(raw))
	})

	t.Run("stray CR before the terminator", func(t *testing.T) {
		require.Equal(t, 6, FindRequestEnd([]byte("a\r\r\n\r\n")))
	})
}

func TestRequestLine(t *testing.T) {
	tcs := []struct {
		Name string
		Raw  string
		Want line
	}{
		{
			Name: "simple get",
			Raw:  "GET / HTTP/1.1\r\n\r\n",
			Want: line{Method: method.GET, MethodName: "GET", Path: "/", Proto: proto.HTTP11, ProtoName: "HTTP/1.1", KeepAlive: true},
		},
		{
			Name: "query",
			Raw:  "POST /api/v1?a=b&c=%20d HTTP/1.0\r\n\r\n",
			Want: line{Method: method.POST, MethodName: "POST", Path: "/api/v1", Query: "a=b&c=%20d", Proto: proto.HTTP10, ProtoName: "HTTP/1.0"},
		},
		{
			Name: "asterisk",
			Raw:  "OPTIONS * HTTP/1.1\r\n\r\n",
			Want: line{Method: method.OPTIONS, MethodName: "OPTIONS", Path: "*", Proto: proto.HTTP11, ProtoName: "HTTP/1.1", KeepAlive: true},
		},
		{
			Name: "arbitrary method token",
			Raw:  "PROPFIND /dav HTTP/1.1\r\n\r\n",
			Want: line{Method: method.Unknown, MethodName: "PROPFIND", Path: "/dav", Proto: proto.HTTP11, ProtoName: "HTTP/1.1", KeepAlive: true},
		},
		{
			Name: "other minor version",
			Raw:  "DELETE /x HTTP/1.2\r\n\r\n",
			Want: line{Method: method.DELETE, MethodName: "DELETE", Path: "/x", Proto: proto.HTTP1x, ProtoName: "HTTP/1.2", KeepAlive: true},
		},
		{
			Name: "empty query",
			Raw:  "HEAD /? HTTP/1.1\r\n\r\n",
			Want: line{Method: method.HEAD, MethodName: "HEAD", Path: "/", Proto: proto.HTTP11, ProtoName: "HTTP/1.1", KeepAlive: true},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Name, func(t *testing.T) {
			req, err := parse(tc.Raw)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.Want, summary(req)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("malformed", func(t *testing.T) {
		tcs := []struct {
			Raw string
			Err error
		}{
			{" / HTTP/1.1\r\n\r\n", status.ErrBadMethod},
			{"G(T / HTTP/1.1\r\n\r\n", status.ErrBadMethod},
			{"GET index HTTP/1.1\r\n\r\n", status.ErrBadPath},
			{"GET *x HTTP/1.1\r\n\r\n", status.ErrBadPath},
			{"GET / HTTP/2.0\r\n\r\n", status.ErrUnsupportedProtocol},
			{"GET / FTP/1.1\r\n\r\n", status.ErrUnsupportedProtocol},
			{"GET /\r\n\r\n", status.ErrBadRequestLine},
			{"GET / HTTP/1.1\r\r\n\r\n", status.ErrBadRequestLine},
		}

		for _, tc := range tcs {
			_, err := parse(tc.Raw)
			require.ErrorIs(t, err, tc.Err, tc.Raw)
		}
	})
}

func TestPath(t *testing.T) {
	tcs := []struct {
		Raw, Want string
	}{
		{"/hello", "/hello"},
		{"/a%20b", "/a%20b"},
		{"/a%2Fb", "/a%2Fb"},
		{"/%D0%BF%D1%80%D0%B8", "/при"},
		{"/%d0%bf", "/п"},
		{"/%zz%4", "/%zz%4"},
		{"/%D0", "/?"},
		{"/%FF%FEx", "/??x"},
		{"/raw\xd0\xbf", "/raw\xd0\xbf"},
	}

	for _, tc := range tcs {
		t.Run(tc.Raw, func(t *testing.T) {
			req, err := parse("GET " + tc.Raw + " HTTP/1.1\r\n\r\n")
			require.NoError(t, err)
			require.Equal(t, tc.Want, req.Path)
		})
	}
}

func TestHeaders(t *testing.T) {
	t.Run("case insensitive and ordered", func(t *testing.T) {
		req, err := parse("GET / HTTP/1.1\r\ncontent-length: 5\r\nAccept: a\r\naccept:\t b \r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, "5", req.Headers.Value("Content-Length"))
		require.Equal(t, uint64(5), req.ContentLength)
		require.Equal(t, []string{"a", "b"}, slices.Collect(req.Headers.Values("ACCEPT")))
	})

	t.Run("continuation line", func(t *testing.T) {
		req, err := parse("GET / HTTP/1.1\r\nX-Long: first\r\n  second\r\nConnection: close\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, []string{"first", "second"}, slices.Collect(req.Headers.Values("x-long")))
		require.False(t, req.KeepAlive)
	})

	t.Run("continuation does not trigger side effects", func(t *testing.T) {
		req, err := parse("GET / HTTP/1.1\r\nConnection: keep-alive\r\n close\r\n\r\n")
		require.NoError(t, err)
		require.True(t, req.KeepAlive)
	})

	t.Run("random headers", func(t *testing.T) {
		var raw strings.Builder
		raw.WriteString("GET / HTTP/1.1\r\n")
		want := make([][2]string, 50)
		for i := range want {
			want[i] = [2]string{"X-" + uniuri.New(), uniuri.NewLen(40)}
			raw.WriteString(want[i][0] + ": " + want[i][1] + "\r\n")
		}
		raw.WriteString("\r\n")

		req, err := parse(raw.String())
		require.NoError(t, err)
		require.Equal(t, len(want), req.Headers.Len())
		for _, pair := range want {
			require.Equal(t, pair[1], req.Headers.Value(strings.ToLower(pair[0])))
		}
	})

	t.Run("malformed", func(t *testing.T) {
		for _, raw := range []string{
			"GET / HTTP/1.1\r\n continuation first\r\n\r\n",
			"GET / HTTP/1.1\r\nno colon\r\n\r\n",
			"GET / HTTP/1.1\r\n: empty name\r\n\r\n",
			"GET / HTTP/1.1\r\nBad Name: x\r\n\r\n",
			"GET / HTTP/1.1\r\nBare: lf\n\r\n\r\n",
		} {
			_, err := parse(raw)
			require.ErrorIs(t, err, status.ErrBadHeader, raw)
		}
	})
}

func TestSideEffects(t *testing.T) {
	t.Run("keep-alive matrix", func(t *testing.T) {
		tcs := []struct {
			Proto, Connection string
			Want              bool
		}{
			{"HTTP/1.0", "", false},
			{"HTTP/1.0", "Keep-Alive", true},
			{"HTTP/1.0", "close", false},
			{"HTTP/1.1", "", true},
			{"HTTP/1.1", "Close", false},
			{"HTTP/1.1", "keep-alive, Upgrade", true},
		}

		for _, tc := range tcs {
			raw := "GET / " + tc.Proto + "\r\n"
			if len(tc.Connection) > 0 {
				raw += "Connection: " + tc.Connection + "\r\n"
			}

			req, err := parse(raw + "\r\n")
			require.NoError(t, err)
			require.Equal(t, tc.Want, req.KeepAlive, raw)
		}
	})

	t.Run("content length", func(t *testing.T) {
		req, err := parse("POST / HTTP/1.1\r\nContent-Length: 18446744073709551614\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, uint64(18446744073709551614), req.ContentLength)

		for _, value := range []string{"abc", "-1", "", "1 2", "18446744073709551615", "99999999999999999999"} {
			_, err = parse("POST / HTTP/1.1\r\nContent-Length: " + value + "\r\n\r\n")
			require.ErrorIs(t, err, status.ErrBadContentLength, value)
		}

		_, err = parse("POST / HTTP/1.1\r\nContent-Length: 1\r\nContent-Length: 2\r\n\r\n")
		require.ErrorIs(t, err, status.ErrBadContentLength)

		req, err = parse("POST / HTTP/1.1\r\nContent-Length: 3\r\nContent-Length: 3\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, uint64(3), req.ContentLength)
	})

	t.Run("no body by default", func(t *testing.T) {
		req, err := parse("POST / HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		require.Zero(t, req.ContentLength)
		require.False(t, req.Chunked)
	})

	t.Run("chunked", func(t *testing.T) {
		for _, raw := range []string{
			"POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n",
			"POST / HTTP/1.1\r\nTransfer-Encoding: gzip, Chunked\r\nContent-Length: 5\r\n\r\n",
			"POST / HTTP/1.1\r\nContent-Length: 5\r\nTransfer-Encoding: chunked\r\n\r\n",
		} {
			req, err := parse(raw)
			require.NoError(t, err)
			require.True(t, req.Chunked, raw)
			require.Equal(t, UnknownLength, req.ContentLength, raw)
		}

		_, err := parse("POST / HTTP/1.1\r\nTransfer-Encoding: gzip\r\n\r\n")
		require.ErrorIs(t, err, status.ErrBadRequest)
	})

	t.Run("expect", func(t *testing.T) {
		req, err := parse("POST / HTTP/1.1\r\nExpect: 100-Continue\r\nContent-Length: 1\r\n\r\n")
		require.NoError(t, err)
		require.True(t, req.Expect100)
	})

	t.Run("websocket", func(t *testing.T) {
		const upgrade = "GET /ws HTTP/1.1\r\n" +
			"Upgrade: websocket\r\n" +
			"Connection: keep-alive, Upgrade\r\n" +
			"Sec-WebSocket-Version: 13\r\n" +
			"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"

		req, err := parse(upgrade)
		require.NoError(t, err)
		require.True(t, req.WebSocket())
		require.Equal(t, "dGhlIHNhbXBsZSBub25jZQ==", req.WebSocketKey)

		missing := []string{
			strings.Replace(upgrade, "GET", "POST", 1),
			strings.Replace(upgrade, "Upgrade: websocket\r\n", "", 1),
			strings.Replace(upgrade, ", Upgrade", "", 1),
			strings.Replace(upgrade, "13", "8", 1),
			strings.Replace(upgrade, "Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n", "", 1),
		}

		for _, raw := range missing {
			req, err = parse(raw)
			require.NoError(t, err)
			require.False(t, req.WebSocket(), raw)
		}
	})

	t.Run("reset", func(t *testing.T) {
		req, err := parse("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\nExpect: 100-continue\r\n\r\n")
		require.NoError(t, err)
		req.Reset()
		require.Equal(t, line{}, summary(req))
		require.True(t, req.Headers.Empty())
		require.False(t, req.WebSocket())
	})
}

func BenchmarkParse(b *testing.B) {
	bench := func(raw []byte) func(b *testing.B) {
		return func(b *testing.B) {
			req := NewRequest()
			scratch := buffer.New(len(raw))
			b.SetBytes(int64(len(raw)))
			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				req.Reset()
				scratch.Clear()
				_ = Parse(raw, req, scratch)
			}
		}
	}

	b.Run("simple", bench([]byte("GET /hello/world?x=y HTTP/1.1\r\nHost: localhost\r\nAccept: */*\r\n"+
		"User-Agent: bench\r\nContent-Length: 0\r\n\r\n")))
	b.Run("5 headers", bench(requestgen.Generate("hello", requestgen.Headers(5))))
	b.Run("50 headers", bench(requestgen.Generate("hello", requestgen.Headers(50))))
}
