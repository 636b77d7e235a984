package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/adapter"
)

func TestRead(t *testing.T) {
	doc := `
adapter: nanopi
bus: 1
bus_speed: 400000
address: 0x30
timeout: 250ms
sampling: background
interval: 2ms
board:
  center_brightness: 120
  side_brightness: 80
  gain: 16
  timing_cycles: 64
mqtt:
  url: mqtt://broker:1883/colors/
  qos: 1
`
	cfg, err := Read(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, AdapterNanoPi, cfg.Adapter)
	assert.Equal(t, 1, cfg.Bus)
	assert.Equal(t, 400000, cfg.BusSpeed)
	assert.Equal(t, uint8(0x30), cfg.Address)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "background", cfg.Sampling)
	assert.Equal(t, 2*time.Millisecond, cfg.Interval)
	assert.Equal(t, colorboard.Config{CenterBrightness: 120, SideBrightness: 80, Gain: 16, TimingCycles: 64}, cfg.Board)
	assert.Equal(t, "mqtt://broker:1883/colors/", cfg.MQTT.URL)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	// not in the file, kept from defaults
	assert.Equal(t, 100*time.Millisecond, cfg.MQTT.Interval)
	assert.Len(t, cfg.BoardOpts(), 5)
}

func TestRead_Empty(t *testing.T) {
	cfg, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Len(t, cfg.BoardOpts(), 4)
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	path := filepath.Join(t.TempDir(), "colorboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapter: emulator\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, AdapterEmulator, cfg.Adapter)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"adapter", func(c *Config) { c.Adapter = "ftdi" }},
		{"address", func(c *Config) { c.Address = 0x80 }},
		{"timeout", func(c *Config) { c.Timeout = -time.Millisecond }},
		{"timeout too short for mcp2221", func(c *Config) { c.Timeout = 100 * time.Millisecond }},
		{"bus speed", func(c *Config) { c.BusSpeed = -1 }},
		{"sampling", func(c *Config) { c.Sampling = "sometimes" }},
		{"interval", func(c *Config) { c.Interval = -time.Second }},
		{"mqtt interval", func(c *Config) { c.MQTT.Interval = 0 }},
		{"gain", func(c *Config) { c.Board.Gain = 8 }},
		{"qos", func(c *Config) { c.MQTT.QoS = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			require.NoError(t, cfg.Validate())
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), colorboard.ErrInvalidArgument)
		})
	}
}

func TestTxTimeout(t *testing.T) {
	cfg := Defaults()
	assert.GreaterOrEqual(t, cfg.TxTimeout(), adapter.MinTxTimeout(adapter.DefaultResponseWait))

	cfg.Adapter = AdapterGeneric
	assert.Equal(t, 100*time.Millisecond, cfg.TxTimeout())

	cfg.Timeout = time.Second
	assert.Equal(t, time.Second, cfg.TxTimeout())

	// short timeouts are fine on a direct bus
	cfg.Timeout = 10 * time.Millisecond
	assert.NoError(t, cfg.Validate())
}

func TestWrite(t *testing.T) {
	cfg := Defaults()
	cfg.Board.Gain = 4
	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))
	assert.Contains(t, buf.String(), "adapter: mcp2221")
	assert.Contains(t, buf.String(), "gain: 4")
}

func TestBuildInfo(t *testing.T) {
	assert.Equal(t, "dev-unknown-none", BuildInfo())
}
