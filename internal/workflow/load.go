package workflow

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a workflow file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the decoder from the file extension. Unknown extensions are read as YAML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Load reads a workflow file. A missing file yields Default().
func Load(path string) (*Workflow, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info().Str("path", path).Msg("Workflow file not found, using default vocabulary")
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	wf, err := Decode(bytes.NewReader(data), FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("invalid workflow file %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Int("phases", len(wf.Phases)).
		Str("outlier_method", wf.Outlier.Method).
		Msg("Loaded workflow")
	return wf, nil
}

// Decode parses and validates a workflow document. Unknown keys are rejected.
func Decode(r io.Reader, format Format) (*Workflow, error) {
	wf := &Workflow{}

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(wf); err != nil {
			return nil, fmt.Errorf("failed to decode toml: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(wf); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported workflow format %q", format)
	}

	wf.applyDefaults()
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}
