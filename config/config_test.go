package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miroslavpetrov/Serial-Console-Pro/logger"
	"github.com/miroslavpetrov/Serial-Console-Pro/transport"
)

func boolPtr(v bool) *bool {
	return &v
}

const sampleYAML = `
port:
  path: /dev/ttyUSB0
  baudRate: 115200
  dataBits: 7
  stopBits: "2"
  parity: even
terminal:
  format: hex
  appendCRLF: false
  timestamps: false
  language: de
  recordDir: /tmp/logs
  statusInterval: 5s
  lineRate: 2.5
log:
  level: debug
  addSource: true
metrics:
  listen: ":9100"
`

func TestLoad(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "serialterm.yaml")
	require.NoError(os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(err)
	require.NoError(cfg.Validate())

	assert.Equal(PortConfig{
		Path:     "/dev/ttyUSB0",
		BaudRate: 115200,
		DataBits: 7,
		StopBits: "2",
		Parity:   "even",
	}, cfg.Port)
	assert.Equal("hex", cfg.Terminal.Format)
	assert.False(cfg.Terminal.AppendCRLF)
	// unset booleans keep their defaults
	assert.True(cfg.Terminal.LocalEcho)
	assert.False(cfg.Terminal.Timestamps)
	assert.Equal("de", cfg.Terminal.Language)
	assert.Equal("/tmp/logs", cfg.Terminal.RecordDir)
	assert.Equal(5*time.Second, cfg.Terminal.StatusInterval)
	assert.InDelta(2.5, cfg.Terminal.LineRate, 1e-9)
	assert.Equal("debug", cfg.Log.Level)
	assert.True(cfg.Log.AddSource)
	assert.Equal(":9100", cfg.Metrics.Listen)

	pc, err := cfg.PortConfig()
	require.NoError(err)
	assert.Equal("/dev/ttyUSB0 115200 7E2", pc.String())

	opts, err := cfg.SessionOptions()
	require.NoError(err)
	assert.Len(opts, 4)

	level, err := cfg.LogLevel()
	require.NoError(err)
	assert.Equal(logger.DebugLevel, level)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default(), cfg)

	// the default config has no port path yet
	_, err = cfg.PortConfig()
	require.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("port:\n  speed: 9600\n"), 0o600))
	_, err = Load(unknown)
	require.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("port:\n  path: COM1\n  dataBits: 9\nterminal:\n  format: octal\n"), 0o600))
	cfg, err := Load(invalid)
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data bits")
	assert.Contains(t, err.Error(), "octal")

	cfg = Default()
	cfg.Terminal.LineRate = -1
	require.ErrorContains(t, cfg.Validate(), "line rate")
}

func TestParse_Empty(t *testing.T) {
	parsed, err := Parse(strings.NewReader("\n  \n"))
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, parsed)
}

func TestMergeDoesNotOverwriteBoolDefaultsWhenUnset(t *testing.T) {
	dst := Default()
	Merge(&dst, FileConfig{Port: FilePortConfig{Path: "COM4"}})

	assert.Equal(t, "COM4", dst.Port.Path)
	assert.True(t, dst.Terminal.AppendCRLF)
	assert.True(t, dst.Terminal.LocalEcho)
	assert.True(t, dst.Terminal.Timestamps)

	Merge(&dst, FileConfig{Terminal: FileTerminalConfig{LocalEcho: boolPtr(false)}})
	assert.False(t, dst.Terminal.LocalEcho)
	assert.True(t, dst.Terminal.AppendCRLF)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, " COM9 ")
	t.Setenv(EnvBaud, "57600")
	t.Setenv(EnvFormat, "hex")
	t.Setenv(EnvLogLevel, "warn")

	cfg := Default()
	ApplyEnvOverrides(&cfg)

	assert.Equal(t, "COM9", cfg.Port.Path)
	assert.Equal(t, 57600, cfg.Port.BaudRate)
	assert.Equal(t, "hex", cfg.Terminal.Format)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Setenv(EnvBaud, "fast")
	ApplyEnvOverrides(&cfg)
	assert.Equal(t, 57600, cfg.Port.BaudRate)

	pc, err := cfg.PortConfig()
	require.NoError(t, err)
	assert.Equal(t, transport.ParityNone, pc.Parity())
}
