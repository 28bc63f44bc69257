package file

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/storage"
)

// Reader implements storage.CircuitReader over a YAML or CSV input file.
type Reader struct {
	path string
}

// NewReader creates a reader for path. The format follows the extension:
// .yaml/.yml carry circuits and risers, .csv carries circuits only.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Compile-time interface check.
var _ storage.CircuitReader = (*Reader)(nil)

// document is the YAML input layout.
type document struct {
	ProjectID string          `yaml:"project_id"`
	Circuits  []circuitDoc    `yaml:"circuits"`
	Risers    []*domain.Riser `yaml:"risers"`
}

type circuitDoc struct {
	CircuitID           string  `yaml:"circuit_id"`
	InstalledKW         float64 `yaml:"installed_kw"`
	DesignKW            float64 `yaml:"design_kw"`
	DemandFactor        float64 `yaml:"demand_factor"`
	PowerFactor         float64 `yaml:"power_factor"`
	Consumers           int     `yaml:"consumers"`
	Phase               string  `yaml:"phase"`
	LengthM             float64 `yaml:"length_m"`
	Runs                int     `yaml:"runs"`
	ConductorsPerRun    int     `yaml:"conductors_per_run"`
	Cores               int     `yaml:"cores"`
	Material            string  `yaml:"material"`
	CableBrand          string  `yaml:"cable_brand"`
	RequestedSectionMM2 float64 `yaml:"requested_section_mm2"`
	RequestedBreakerA   float64 `yaml:"requested_breaker_a"`
	PEConductors        int     `yaml:"pe_conductors"`
	GroupKey            string  `yaml:"group_key"`
	Classification      string  `yaml:"classification"`
	LiftGroup           string  `yaml:"lift_group"`
	FloorCategory       string  `yaml:"floor_category"`
	Feeder              bool    `yaml:"feeder"`
}

func (d circuitDoc) record(projectID string) *domain.CircuitRecord {
	return &domain.CircuitRecord{
		CircuitID:           d.CircuitID,
		ProjectID:           projectID,
		InstalledKW:         d.InstalledKW,
		DesignKW:            d.DesignKW,
		DemandFactor:        d.DemandFactor,
		PowerFactor:         d.PowerFactor,
		Consumers:           d.Consumers,
		Phase:               domain.Phase(d.Phase),
		LengthM:             d.LengthM,
		Runs:                d.Runs,
		ConductorsPerRun:    d.ConductorsPerRun,
		Cores:               d.Cores,
		Material:            domain.Material(d.Material),
		CableBrand:          d.CableBrand,
		RequestedSectionMM2: d.RequestedSectionMM2,
		RequestedBreakerA:   d.RequestedBreakerA,
		PEConductors:        d.PEConductors,
		GroupKey:            d.GroupKey,
		Classification:      d.Classification,
		LiftGroup:           d.LiftGroup,
		FloorCategory:       domain.FloorCategory(d.FloorCategory),
		Feeder:              d.Feeder,
	}
}

// ReadBatch reads the input file. A YAML document naming a different
// project returns ErrNotFound; an empty projectID accepts any.
func (r *Reader) ReadBatch(_ context.Context, projectID string) (*domain.Batch, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", r.path, err)
	}

	var batch *domain.Batch
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".yaml", ".yml":
		batch, err = parseYAML(data)
	case ".csv":
		batch, err = parseCSV(data)
	default:
		return nil, fmt.Errorf("input %s: unsupported format: %w", r.path, storage.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", r.path, err)
	}

	switch {
	case batch.ProjectID == "":
		batch.ProjectID = projectID
	case projectID != "" && batch.ProjectID != projectID:
		return nil, storage.ErrNotFound
	}
	for _, c := range batch.Circuits {
		c.ProjectID = batch.ProjectID
	}
	if err := validate(batch); err != nil {
		return nil, fmt.Errorf("input %s: %w", r.path, err)
	}
	return batch, nil
}

func parseYAML(data []byte) (*domain.Batch, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	batch := &domain.Batch{ProjectID: doc.ProjectID, Risers: doc.Risers}
	for _, c := range doc.Circuits {
		batch.Circuits = append(batch.Circuits, c.record(doc.ProjectID))
	}
	return batch, nil
}

// csvColumns maps header names to field setters.
var csvColumns = map[string]func(c *domain.CircuitRecord, v string) error{
	"circuit_id":            func(c *domain.CircuitRecord, v string) error { c.CircuitID = v; return nil },
	"installed_kw":          floatField(func(c *domain.CircuitRecord) *float64 { return &c.InstalledKW }),
	"design_kw":             floatField(func(c *domain.CircuitRecord) *float64 { return &c.DesignKW }),
	"demand_factor":         floatField(func(c *domain.CircuitRecord) *float64 { return &c.DemandFactor }),
	"power_factor":          floatField(func(c *domain.CircuitRecord) *float64 { return &c.PowerFactor }),
	"consumers":             intField(func(c *domain.CircuitRecord) *int { return &c.Consumers }),
	"phase":                 func(c *domain.CircuitRecord, v string) error { c.Phase = domain.Phase(v); return nil },
	"length_m":              floatField(func(c *domain.CircuitRecord) *float64 { return &c.LengthM }),
	"runs":                  intField(func(c *domain.CircuitRecord) *int { return &c.Runs }),
	"conductors_per_run":    intField(func(c *domain.CircuitRecord) *int { return &c.ConductorsPerRun }),
	"cores":                 intField(func(c *domain.CircuitRecord) *int { return &c.Cores }),
	"material":              func(c *domain.CircuitRecord, v string) error { c.Material = domain.Material(v); return nil },
	"cable_brand":           func(c *domain.CircuitRecord, v string) error { c.CableBrand = v; return nil },
	"requested_section_mm2": floatField(func(c *domain.CircuitRecord) *float64 { return &c.RequestedSectionMM2 }),
	"requested_breaker_a":   floatField(func(c *domain.CircuitRecord) *float64 { return &c.RequestedBreakerA }),
	"pe_conductors":         intField(func(c *domain.CircuitRecord) *int { return &c.PEConductors }),
	"group_key":             func(c *domain.CircuitRecord, v string) error { c.GroupKey = v; return nil },
	"classification":        func(c *domain.CircuitRecord, v string) error { c.Classification = v; return nil },
	"lift_group":            func(c *domain.CircuitRecord, v string) error { c.LiftGroup = v; return nil },
	"floor_category": func(c *domain.CircuitRecord, v string) error {
		c.FloorCategory = domain.FloorCategory(v)
		return nil
	},
	"feeder": func(c *domain.CircuitRecord, v string) error {
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		c.Feeder = b
		return err
	},
}

func floatField(field func(*domain.CircuitRecord) *float64) func(*domain.CircuitRecord, string) error {
	return func(c *domain.CircuitRecord, v string) error {
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		*field(c) = f
		return err
	}
}

func intField(field func(*domain.CircuitRecord) *int) func(*domain.CircuitRecord, string) error {
	return func(c *domain.CircuitRecord, v string) error {
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		*field(c) = n
		return err
	}
}

func parseCSV(data []byte) (*domain.Batch, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	setters := make([]func(*domain.CircuitRecord, string) error, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		set, ok := csvColumns[name]
		if !ok {
			return nil, fmt.Errorf("unknown column %q: %w", name, storage.ErrInvalidInput)
		}
		setters[i] = set
	}

	batch := &domain.Batch{}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		c := &domain.CircuitRecord{}
		for i, v := range rec {
			if err := setters[i](c, strings.TrimSpace(v)); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, header[i], err)
			}
		}
		batch.Circuits = append(batch.Circuits, c)
	}
	return batch, nil
}

// validate checks the fields every circuit must carry.
func validate(batch *domain.Batch) error {
	var errs []error
	seen := make(map[string]bool, len(batch.Circuits))
	for i, c := range batch.Circuits {
		switch {
		case c.CircuitID == "":
			errs = append(errs, fmt.Errorf("circuit #%d: missing circuit_id", i+1))
			continue
		case seen[c.CircuitID]:
			errs = append(errs, fmt.Errorf("circuit %s: declared twice", c.CircuitID))
		}
		seen[c.CircuitID] = true

		if c.Phase != domain.PhaseSingle && c.Phase != domain.PhaseThree {
			errs = append(errs, fmt.Errorf("circuit %s: unknown phase %q", c.CircuitID, c.Phase))
		}
		if c.Material != domain.MaterialCopper && c.Material != domain.MaterialAluminium {
			errs = append(errs, fmt.Errorf("circuit %s: unknown material %q", c.CircuitID, c.Material))
		}
		switch c.FloorCategory {
		case "", domain.FloorCategoryLow, domain.FloorCategoryHigh:
		default:
			errs = append(errs, fmt.Errorf("circuit %s: unknown floor category %q", c.CircuitID, c.FloorCategory))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", storage.ErrInvalidInput, errors.Join(errs...))
}
