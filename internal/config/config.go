// Package config loads the sizer configuration: engine options, table and
// input locations, storage connections and logging.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"distribution-sizer/internal/aggregate"
	"distribution-sizer/internal/classify"
	"distribution-sizer/internal/demand"
	"distribution-sizer/internal/pipeline"
	"distribution-sizer/internal/sizing"
	"distribution-sizer/internal/tables"
)

// Default values.
const (
	DefaultProjectID = pipeline.DemoProjectID
	DefaultOutputDir = "output"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Config is the complete sizer configuration.
type Config struct {
	ProjectID   string `koanf:"project_id"`
	Input       string `koanf:"input"`  // YAML or CSV circuit file; empty reads from PostgreSQL
	Tables      string `koanf:"tables"` // operator table file; empty uses the built-in tables
	OutputDir   string `koanf:"output_dir"`
	ProductLine string `koanf:"product_line"`

	Voltage     VoltageConfig     `koanf:"voltage"`
	VoltageDrop VoltageDropConfig `koanf:"voltage_drop"`

	Aggregates    []aggregate.Def    `koanf:"aggregates"`
	Factors       []demand.FactorDef `koanf:"factors"`
	Formula       string             `koanf:"formula"`
	FormulaTokens []string           `koanf:"formula_tokens"`
	Optional      []string           `koanf:"optional"`

	Apartments pipeline.ApartmentOptions `koanf:"apartments"`
	Elevators  pipeline.ElevatorOptions  `koanf:"elevators"`
	Taxonomy   TaxonomyConfig            `koanf:"taxonomy"`

	Postgres   DatabaseConfig `koanf:"postgres"`
	ClickHouse DatabaseConfig `koanf:"clickhouse"`

	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// VoltageConfig holds the nominal voltages.
type VoltageConfig struct {
	Line  float64 `koanf:"line"`
	Phase float64 `koanf:"phase"`
}

// VoltageDropConfig gates the voltage-drop upsizing loop.
type VoltageDropConfig struct {
	Check  bool    `koanf:"check"`
	MaxPct float64 `koanf:"max_pct"`
}

// TaxonomyConfig replaces the built-in classification rules when Rules is set.
type TaxonomyConfig struct {
	Rules        []classify.Rule `koanf:"rules"`
	Distributed  []string        `koanf:"distributed"`
	ElevatorTags []string        `koanf:"elevator_tags"`
}

// DatabaseConfig holds one storage connection. An empty DSN disables it.
type DatabaseConfig struct {
	DSN     string `koanf:"dsn"`
	Migrate bool   `koanf:"migrate"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // console | json
}

// MetricsConfig configures the node-exporter textfile.
type MetricsConfig struct {
	Namespace string `koanf:"namespace"`
	Textfile  string `koanf:"textfile"` // empty disables
}

// ApplyDefaults fills the list settings a file left empty with the
// built-in engine defaults.
func (c *Config) ApplyDefaults() {
	def := pipeline.DefaultOptions()
	if len(c.Aggregates) == 0 {
		c.Aggregates = def.Aggregates
	}
	if c.Factors == nil {
		c.Factors = def.Factors
	}
	if c.Formula == "" && len(c.FormulaTokens) == 0 {
		c.Formula = def.Formula
	}
	if c.Optional == nil {
		c.Optional = def.Optional
	}
	if len(c.Taxonomy.Rules) == 0 {
		c.Taxonomy.Rules = classify.DefaultRules()
	}
	if c.Taxonomy.Distributed == nil {
		c.Taxonomy.Distributed = classify.DefaultDistributed()
	}
	if len(c.Taxonomy.ElevatorTags) == 0 {
		c.Taxonomy.ElevatorTags = []string{"elevators"}
	}
}

// Validate checks the settings the engine does not check itself.
func (c *Config) Validate() error {
	var errs []error
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Input != "" {
		switch strings.ToLower(filepath.Ext(c.Input)) {
		case ".yaml", ".yml", ".csv":
		default:
			errs = append(errs, fmt.Errorf("input: unsupported file type %q", filepath.Ext(c.Input)))
		}
	}
	return errors.Join(errs...)
}

// CheckSource reports whether a circuit source is configured.
func (c *Config) CheckSource() error {
	if c.Input == "" && c.Postgres.DSN == "" {
		return errors.New("no circuit source: set input or postgres.dsn")
	}
	return nil
}

// EngineOptions converts the configuration into engine options.
func (c *Config) EngineOptions() pipeline.Options {
	return pipeline.Options{
		Aggregates:    c.Aggregates,
		Factors:       c.Factors,
		Formula:       c.Formula,
		FormulaTokens: c.FormulaTokens,
		Optional:      c.Optional,
		ProductLine:   c.ProductLine,
		Sizing: sizing.Options{
			LineVoltageV:      c.Voltage.Line,
			PhaseVoltageV:     c.Voltage.Phase,
			CheckVoltageDrop:  c.VoltageDrop.Check,
			MaxVoltageDropPct: c.VoltageDrop.MaxPct,
		},
		Apartments: c.Apartments,
		Elevators:  c.Elevators,
	}
}

// NewTaxonomy builds the classification taxonomy.
func (c *Config) NewTaxonomy() *classify.Taxonomy {
	return classify.New(c.Taxonomy.Rules, c.Taxonomy.Distributed, c.Taxonomy.ElevatorTags)
}

// LoadTables loads the lookup tables, built-in or from the operator file.
func (c *Config) LoadTables() (*tables.Set, error) {
	set, err := tables.Load(c.Tables)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return set, nil
}
