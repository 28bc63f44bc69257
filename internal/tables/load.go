package tables

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"distribution-sizer/internal/domain"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Defaults returns a fresh copy of the built-in tables, validated.
func Defaults() (*Set, error) {
	return Parse(defaultsYAML)
}

// Load returns the built-in tables overridden by the operator file at path.
// Top-level keys present in the file replace the built-in ones.
// An empty path returns the defaults.
func Load(path string) (*Set, error) {
	if path == "" {
		return Defaults()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables %s: %w", path, err)
	}

	set, err := decode(defaultsYAML, nil)
	if err != nil {
		return nil, err
	}
	set, err = decode(data, set)
	if err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Parse decodes a complete table document and validates it.
func Parse(data []byte) (*Set, error) {
	set, err := decode(data, nil)
	if err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func decode(data []byte, into *Set) (*Set, error) {
	if into == nil {
		into = &Set{}
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil && !errors.Is(err, io.EOF) {
		return nil, &domain.ConfigurationError{Err: fmt.Errorf("decode tables: %w", err)}
	}
	return into, nil
}
