package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"distribution-sizer/internal/pipeline"
)

// EnvPrefix is the prefix of configuration environment variables. A double
// underscore separates nesting levels: SIZER_POSTGRES__DSN sets postgres.dsn.
const EnvPrefix = "SIZER_"

// flagKeys maps flag names to configuration keys where the two differ.
var flagKeys = map[string]string{
	"postgres-dsn":   "postgres.dsn",
	"clickhouse-dsn": "clickhouse.dsn",
	"migrate":        "postgres.migrate",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"metrics-file":   "metrics.textfile",
	"line-voltage":   "voltage.line",
	"phase-voltage":  "voltage.phase",
	"check-drop":     "voltage_drop.check",
	"max-drop":       "voltage_drop.max_pct",
	"policy":         "apartments.policy",
	"regional":       "apartments.regional",
}

// RegisterFlags adds the configuration flags to fs. Only flags the user sets
// override lower layers.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("project-id", "", "project whose circuits are sized")
	fs.StringP("input", "i", "", "circuit file (.yaml, .yml or .csv); empty reads from PostgreSQL")
	fs.String("tables", "", "lookup table file overriding the built-in tables")
	fs.StringP("output-dir", "o", "", "directory for report.md and CSV outputs")
	fs.String("product-line", "", "manufacturer product line for cable brands")
	fs.String("formula", "", "top-level load formula")
	fs.String("postgres-dsn", "", "PostgreSQL connection string")
	fs.String("clickhouse-dsn", "", "ClickHouse connection string for the run archive")
	fs.Bool("migrate", false, "apply storage migrations before running")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (console, json)")
	fs.String("metrics-file", "", "write Prometheus metrics to this textfile")
	fs.Float64("line-voltage", 0, "three-phase line voltage, V")
	fs.Float64("phase-voltage", 0, "single-phase voltage, V")
	fs.Bool("check-drop", true, "upsize sections whose voltage drop exceeds the limit")
	fs.Float64("max-drop", 0, "voltage drop limit, %")
	fs.String("policy", "", "apartment tier policy (per-tier, merged)")
	fs.Float64("regional", 0, "regional coefficient of apartment loads")
}

// defaults returns the scalar defaults. List settings are filled by
// ApplyDefaults after unmarshalling.
func defaults() map[string]interface{} {
	def := pipeline.DefaultOptions()
	return map[string]interface{}{
		"project_id":                DefaultProjectID,
		"output_dir":                DefaultOutputDir,
		"voltage.line":              def.Sizing.LineVoltageV,
		"voltage.phase":             def.Sizing.PhaseVoltageV,
		"voltage_drop.check":        def.Sizing.CheckVoltageDrop,
		"voltage_drop.max_pct":      def.Sizing.MaxVoltageDropPct,
		"apartments.aggregate":      def.Apartments.Aggregate,
		"apartments.policy":         string(def.Apartments.Policy),
		"apartments.regional":       def.Apartments.Regional,
		"apartments.reference_kw":   def.Apartments.ReferenceKW,
		"apartments.power_factor":   def.Apartments.PowerFactor,
		"apartments.specific_table": def.Apartments.SpecificTable,
		"apartments.comfort_table":  def.Apartments.ComfortTable,
		"elevators.aggregate":       def.Elevators.Aggregate,
		"elevators.low_table":       def.Elevators.LowTable,
		"elevators.high_table":      def.Elevators.HighTable,
		"log.level":                 DefaultLogLevel,
		"log.format":                DefaultLogFormat,
		"metrics.namespace":         "distribution_sizer",
	}
}

// Load loads configuration from defaults, the file, environment variables
// and flags. Precedence (highest to lowest): flags > env vars > file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment: SIZER_VOLTAGE_DROP__MAX_PCT -> voltage_drop.max_pct
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// 4. Flags explicitly set on the command line
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}
