package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/servoctl/internal/config"
	"codeberg.org/mutker/servoctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "servoctl.toml")
	err := os.WriteFile(configPath, []byte(content), 0o600)
	require.NoError(t, err)

	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "debug"
board = "mock"
pwm_pins = [12, 18]
metrics = true
metrics_db = "/path/to/metrics.db"
sweep = true
cancel_notify_on_stop = true

[[actuator]]
id = "pan"
pin = 12
range = [10, 170]
start_at = "min"
history_limit = 100

[[actuator]]
id = "wheel"
pin = 18
type = "continuous"
center = true
sweep = true
`)

	// Set environment variable to point to the test config file
	t.Setenv("SERVOCTL_CONFIG", configPath)

	cfg, err := config.Load(config.WithArgs())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.Equal(t, "mock", cfg.Board)
	assert.Equal(t, []int{12, 18}, cfg.PWMPins)
	assert.True(t, cfg.Metrics, "Expected Metrics true")
	assert.Equal(t, "/path/to/metrics.db", cfg.MetricsDB)
	assert.True(t, cfg.Sweep)
	assert.True(t, cfg.CancelNotifyOnStop)

	require.Len(t, cfg.Actuators, 2)

	pan := cfg.Actuators[0]
	assert.Equal(t, "pan", pan.ID)
	require.NotNil(t, pan.Pin)
	assert.Equal(t, 12, *pan.Pin)
	assert.True(t, pan.HasRange())
	assert.Equal(t, []float64{10, 170}, pan.Range)
	assert.Equal(t, "min", pan.StartAt)
	assert.Equal(t, 100, pan.HistoryLimit)

	wheel := cfg.Actuators[1]
	assert.Equal(t, "continuous", wheel.Type)
	assert.True(t, wheel.Center)
	assert.True(t, wheel.Sweep)
	assert.False(t, wheel.HasRange())
}

func TestLoadDefaults(t *testing.T) {
	// Ensure no config file is used
	t.Setenv("SERVOCTL_CONFIG", "")

	cfg, err := config.Load(config.WithArgs())
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
	assert.Equal(t, config.DefaultBoard, cfg.Board)
	assert.False(t, cfg.Metrics)
	assert.Equal(t, config.DefaultMetricsDB, cfg.MetricsDB)
	assert.False(t, cfg.Sweep)
	assert.False(t, cfg.CancelNotifyOnStop)
	assert.Empty(t, cfg.Actuators)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("SERVOCTL_CONFIG", configPath)

	_, err := config.Load(config.WithArgs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("SERVOCTL_CONFIG", configPath)

	_, err := config.Load(config.WithArgs())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestFlagsOverrideDefaults(t *testing.T) {
	t.Setenv("SERVOCTL_CONFIG", "")

	cfg, err := config.Load(config.WithArgs(
		"--log-level", "debug",
		"--board", "mock",
		"--metrics",
		"--metrics-db", "/tmp/moves.db",
		"--sweep",
		"--cancel-notify-on-stop",
	))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
	assert.Equal(t, "mock", cfg.Board)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "/tmp/moves.db", cfg.MetricsDB)
	assert.True(t, cfg.Sweep)
	assert.True(t, cfg.CancelNotifyOnStop)
}

func TestFlagOverridesFile(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "error"
`)

	cfg, err := config.Load(config.WithArgs("--config", configPath, "--log-level", "warning"))
	require.NoError(t, err)
	assert.Equal(t, "warning", cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	configPath := writeConfig(t, `
board = "rpio"
`)
	t.Setenv("SERVOCTL_BOARD", "mock")

	cfg, err := config.Load(config.WithArgs(), config.WithConfigFile(configPath))
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Board)
}

func TestCustomEnvPrefix(t *testing.T) {
	t.Setenv("SERVOCTL_CONFIG", "")
	t.Setenv("ARM_CONFIG", "")
	t.Setenv("ARM_LOG_LEVEL", "error")

	cfg, err := config.Load(config.WithArgs(), config.WithEnvPrefix("ARM"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestUnknownFlag(t *testing.T) {
	t.Setenv("SERVOCTL_CONFIG", "")

	_, err := config.Load(config.WithArgs("--temperature", "80"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrParseFlags))
}

func TestInvalidActuators(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"inverted range", "[[actuator]]\npin = 12\nrange = [170, 10]\n"},
		{"short range", "[[actuator]]\npin = 12\nrange = [10]\n"},
		{"unknown type", "[[actuator]]\npin = 12\ntype = \"linear\"\n"},
		{"unknown start", "[[actuator]]\npin = 12\nstart_at = \"middle\"\n"},
		{"negative pin", "[[actuator]]\npin = -4\n"},
		{"missing pin", "[[actuator]]\nid = \"pan\"\nrange = [0, 90]\n"},
		{"negative history", "[[actuator]]\npin = 12\nhistory_limit = -1\n"},
		{"duplicate id", "[[actuator]]\nid = \"a\"\npin = 12\n\n[[actuator]]\nid = \"a\"\npin = 13\n"},
		{"unknown board", "board = \"arduino\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.content)

			_, err := config.Load(config.WithArgs(), config.WithConfigFile(configPath))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestPinZeroIsAccepted(t *testing.T) {
	configPath := writeConfig(t, "[[actuator]]\npin = 0\n")

	cfg, err := config.Load(config.WithArgs(), config.WithConfigFile(configPath))
	require.NoError(t, err)
	require.Len(t, cfg.Actuators, 1)
	require.NotNil(t, cfg.Actuators[0].Pin)
	assert.Equal(t, 0, *cfg.Actuators[0].Pin)
}

func TestMetricsRequiresDBPath(t *testing.T) {
	configPath := writeConfig(t, `
metrics = true
metrics_db = ""
`)

	_, err := config.Load(config.WithArgs(), config.WithConfigFile(configPath))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMissingConfig))
}

func TestLogLevelIsValid(t *testing.T) {
	for _, l := range []config.LogLevel{config.LogLevelDebug, config.LogLevelInfo, config.LogLevelWarning, config.LogLevelError} {
		assert.True(t, l.IsValid(), l.String())
	}
	assert.False(t, config.LogLevel("trace").IsValid())
}
