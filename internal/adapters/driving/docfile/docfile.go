package docfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

// Format is a supported document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format implied by the file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// IsDocument returns true if path has a supported extension.
func IsDocument(path string) bool {
	_, ok := FormatOf(path)
	return ok
}

// Read loads the workflow document at path.
func Read(path string) (domain.WorkflowDocument, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported document extension %q", domain.ErrInvalidInput, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	doc, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode parses data as a workflow document. The top level must be an object.
func Decode(data []byte, format Format) (domain.WorkflowDocument, error) {
	var raw any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: parsing JSON: %v", domain.ErrInvalidInput, err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: trailing data after JSON document", domain.ErrInvalidInput)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: parsing YAML: %v", domain.ErrInvalidInput, err)
		}
		raw = stringKeys(raw)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, format)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document must be an object", domain.ErrInvalidInput)
	}
	return domain.WorkflowDocument(obj), nil
}

// stringKeys converts YAML mappings with non-string keys into JSON-compatible maps.
func stringKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = stringKeys(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = stringKeys(item)
		}
		return val
	default:
		return v
	}
}

// ResolveID returns explicit when set, otherwise the document's own id field.
// It returns "" when neither is available.
func ResolveID(explicit string, doc domain.WorkflowDocument) string {
	if explicit != "" {
		return explicit
	}
	return doc.ID()
}

// ResolveOrNew resolves the ID like ResolveID and falls back to a fresh UUID.
func ResolveOrNew(explicit string, doc domain.WorkflowDocument) string {
	if id := ResolveID(explicit, doc); id != "" {
		return id
	}
	return uuid.NewString()
}

// ResolveOrStem resolves the ID like ResolveID and falls back to the file
// name without its extension.
func ResolveOrStem(explicit string, doc domain.WorkflowDocument, path string) string {
	if id := ResolveID(explicit, doc); id != "" {
		return id
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
