package config

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/mutker/servoctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix  = "SERVOCTL"
	DefaultConfigFile = "/etc/servoctl.toml"
	DefaultLogLevel   = "info"
	DefaultBoard      = "rpio"
	DefaultMetricsDB  = "/var/lib/servoctl/metrics.db"
	DefaultPIDDir     = ""
)

type Config struct {
	LogLevel           string           `mapstructure:"log_level"`
	Board              string           `mapstructure:"board"`
	PWMPins            []int            `mapstructure:"pwm_pins"`
	Metrics            bool             `mapstructure:"metrics"`
	MetricsDB          string           `mapstructure:"metrics_db"`
	Sweep              bool             `mapstructure:"sweep"`
	CancelNotifyOnStop bool             `mapstructure:"cancel_notify_on_stop"`
	PIDDir             string           `mapstructure:"pid_dir"`
	Actuators          []ActuatorConfig `mapstructure:"actuator"`
}

// ActuatorConfig is one [[actuator]] table
type ActuatorConfig struct {
	ID           string    `mapstructure:"id"`
	Pin          *int      `mapstructure:"pin"`
	Type         string    `mapstructure:"type"`
	Range        []float64 `mapstructure:"range"`
	StartAt      string    `mapstructure:"start_at"`
	Center       bool      `mapstructure:"center"`
	Sweep        bool      `mapstructure:"sweep"`
	HistoryLimit int       `mapstructure:"history_limit"`
}

// HasRange reports whether a custom range was configured
func (a ActuatorConfig) HasRange() bool {
	return len(a.Range) == 2
}

func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}
	if !o.argsSet {
		o.args = os.Args[1:]
	}

	v := viper.New()
	setDefaults(v)

	flags := newFlagSet()
	if err := flags.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrParseFlags, err)
	}
	if err := bindFlags(v, flags); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := resolveConfigPath(o, flags); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("board", DefaultBoard)
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_db", DefaultMetricsDB)
	v.SetDefault("sweep", false)
	v.SetDefault("cancel_notify_on_stop", false)
	v.SetDefault("pid_dir", DefaultPIDDir)
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("servoctl", pflag.ContinueOnError)
	flags.String("config", "", "Path to the configuration file")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.String("board", DefaultBoard, "Board driver (rpio, mock)")
	flags.Bool("metrics", false, "Record movements to the metrics database")
	flags.String("metrics-db", DefaultMetricsDB, "Path to the metrics database")
	flags.Bool("sweep", false, "Sweep every actuator after start-up")
	flags.Bool("cancel-notify-on-stop", false, "Drop pending move notifications on stop")
	flags.String("pid-dir", DefaultPIDDir, "Directory of the PID file")
	return flags
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"log_level":             "log-level",
		"board":                 "board",
		"metrics":               "metrics",
		"metrics_db":            "metrics-db",
		"sweep":                 "sweep",
		"cancel_notify_on_stop": "cancel-notify-on-stop",
		"pid_dir":               "pid-dir",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// resolveConfigPath prefers explicit options, then --config, then the
// environment, then the default file if it exists.
func resolveConfigPath(o options, flags *pflag.FlagSet) string {
	if o.configPath != "" {
		return o.configPath
	}
	if path, err := flags.GetString("config"); err == nil && path != "" {
		return path
	}
	if path, ok := os.LookupEnv(o.envPrefix + "_CONFIG"); ok {
		return path
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	switch c.Board {
	case "rpio", "mock":
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("unknown board %q", c.Board))
	}

	if c.Metrics && c.MetricsDB == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "metrics_db")
	}

	ids := make(map[string]bool, len(c.Actuators))
	for i, a := range c.Actuators {
		if err := a.validate(); err != nil {
			return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("actuator %d: %s", i, err))
		}
		if a.ID == "" {
			continue
		}
		if ids[a.ID] {
			return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("actuator %d: duplicate id %q", i, a.ID))
		}
		ids[a.ID] = true
	}

	return nil
}

func (a ActuatorConfig) validate() error {
	if a.Pin == nil {
		return fmt.Errorf("missing pin")
	}
	if *a.Pin < 0 {
		return fmt.Errorf("invalid pin %d", *a.Pin)
	}

	switch a.Type {
	case "", "standard", "continuous":
	default:
		return fmt.Errorf("unknown type %q", a.Type)
	}

	switch a.StartAt {
	case "", "min", "max":
	default:
		return fmt.Errorf("unknown start_at %q", a.StartAt)
	}

	switch len(a.Range) {
	case 0:
	case 2:
		if a.Range[0] > a.Range[1] {
			return fmt.Errorf("range min %v exceeds max %v", a.Range[0], a.Range[1])
		}
	default:
		return fmt.Errorf("range needs two values, got %d", len(a.Range))
	}

	if a.HistoryLimit < 0 {
		return fmt.Errorf("invalid history_limit %d", a.HistoryLimit)
	}

	return nil
}
