package terminal

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var noon = time.Date(2025, 3, 14, 12, 0, 1, 0, time.Local)

func TestDirection(t *testing.T) {
	assert := assert.New(t)

	names := map[Direction]string{
		Info: "info", Error: "error", Success: "success", Warning: "warning", TX: "tx", RX: "rx",
	}
	for d, name := range names {
		assert.Equal(name, d.String())
		assert.Equal(d == TX || d == RX, d.Loggable(), name)
	}
	assert.Equal("unknown", Direction(42).String())
	assert.Equal("→", TX.Arrow())
	assert.Equal("←", RX.Arrow())
	assert.Empty(Info.Arrow())
}

func TestRecorder(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	r := NewRecorder()
	assert.False(r.Enabled())

	// nothing is recorded while disabled
	r.Emit(Line{Time: noon, Direction: RX, Text: "ignored"})
	assert.Zero(r.Len())

	r.Enable()
	r.Emit(Line{Time: noon, Direction: TX, Text: "AT"})
	r.Emit(Line{Time: noon, Direction: Info, Text: "Connected"})
	r.Emit(Line{Time: noon, Direction: RX, Text: "OK"})
	r.Emit(Line{Time: noon, Direction: Error, Text: "Error: boom"})
	assert.Equal(2, r.Len())

	r.Disable()
	r.Emit(Line{Time: noon, Direction: RX, Text: "late"})

	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	require.NoError(err)
	assert.Equal("12:00:01 → AT\n12:00:01 ← OK", buf.String())
	assert.Equal(int64(buf.Len()), n)
	assert.Zero(r.Len())

	// empty buffer writes nothing
	n, err = r.WriteTo(&buf)
	require.NoError(err)
	assert.Zero(n)

	r.Enable()
	r.Emit(Line{Time: noon, Direction: RX, Text: "again"})
	assert.Equal([]string{"12:00:01 ← again"}, r.Flush())
	assert.Nil(r.Flush())
}

func TestLogFileName(t *testing.T) {
	assert.Equal(t, "serial-log-2025-03-14.txt", LogFileName(noon))
}

func TestWriter(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	w.Emit(Line{Time: noon, Direction: RX, Text: "OK"})
	w.Emit(Line{Time: noon, Direction: Success, Text: "Connected to COM1 at 9600 baud"})

	w.SetTimestamps(false)
	w.Emit(Line{Time: noon, Direction: TX, Text: "AT"})

	assert.Equal("[12:00:01] ← OK\n[12:00:01] Connected to COM1 at 9600 baud\n→ AT\n", buf.String())
	assert.NoError(w.Err())
}

type failingWriter struct{ calls int }

func (f *failingWriter) Write([]byte) (int, error) {
	f.calls++
	return 0, errors.New("disk full")
}

func TestWriter_StopsAfterError(t *testing.T) {
	fw := &failingWriter{}
	w := NewWriter(fw, false)
	w.Emit(NewLine(RX, "a"))
	w.Emit(NewLine(RX, "b"))

	assert.Equal(t, 1, fw.calls)
	assert.EqualError(t, w.Err(), "disk full")
}

func TestBroadcaster(t *testing.T) {
	assert := assert.New(t)

	var (
		mu  sync.Mutex
		got []string
	)
	record := func(name string) Sink {
		return SinkFunc(func(l Line) {
			mu.Lock()
			got = append(got, name+":"+l.Text)
			mu.Unlock()
		})
	}

	b := NewBroadcaster()
	b.Emit(NewLine(Info, "nobody listens"))

	b.Subscribe("b", record("b"))
	b.Subscribe("a", record("a"))
	b.Subscribe("nil", nil)
	assert.Equal(2, b.Len())

	b.Emit(NewLine(RX, "x"))
	assert.Equal([]string{"a:x", "b:x"}, got)

	assert.True(b.Unsubscribe("a"))
	assert.False(b.Unsubscribe("a"))

	got = nil
	b.Emit(NewLine(RX, "y"))
	assert.Equal([]string{"b:y"}, got)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0 bytes"},
		{1, "1 bytes"},
		{1023, "1023 bytes"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024*1024 - 1, "1024.00 KB"},
		{1024 * 1024, "1.00 MB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.n))
	}
}

func TestFormatUptime(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("00:00:00", FormatUptime(0))
	assert.Equal("00:00:00", FormatUptime(-time.Second))
	assert.Equal("00:00:59", FormatUptime(59*time.Second+900*time.Millisecond))
	assert.Equal("01:01:01", FormatUptime(time.Hour+time.Minute+time.Second))
	assert.Equal("100:00:00", FormatUptime(100*time.Hour))
}

func TestPrinter(t *testing.T) {
	assert := assert.New(t)

	en := NewPrinter(language.English)
	assert.Equal("Found 3 port(s)", en.Sprintf(MsgFoundPorts, 3))
	assert.Equal("Connected to COM1 at 115200 baud", en.Sprintf(MsgConnected, "COM1", "115200"))
	assert.Equal("Port closed unexpectedly", en.Sprintf(MsgClosedUnexpectedly))
	assert.Equal("Invalid hex string (must be even length)", en.Sprintf(MsgInvalidHex))

	de := NewPrinter(language.MustParse("de-AT"))
	assert.Equal("Getrennt", de.Sprintf(MsgDisconnected))
	assert.True(strings.HasPrefix(de.Sprintf(MsgSendFailed, "x"), "Senden fehlgeschlagen"))

	fallback := NewPrinter(language.Japanese)
	assert.Equal("Disconnected", fallback.Sprintf(MsgDisconnected))
}
