package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

// ChecksumEngine computes content hashes that ignore volatile fields and key order,
// so a document round-tripped through export and import keeps its checksum.
//
// The digest is SHA-256 over a canonical JSON encoding of the stripped document:
//   - volatile top-level fields (domain.VolatileFields) removed
//   - object keys sorted lexicographically at every level
//   - arrays kept in order
//   - compact separators, no HTML escaping
type ChecksumEngine struct{}

// NewChecksumEngine creates a new ChecksumEngine.
func NewChecksumEngine() *ChecksumEngine {
	return &ChecksumEngine{}
}

// Checksum returns the hex digest of doc.
func (c *ChecksumEngine) Checksum(doc domain.WorkflowDocument) (string, error) {
	canonical, err := c.Canonical(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Canonical returns the canonical encoding of the stripped document.
func (c *ChecksumEngine) Canonical(doc domain.WorkflowDocument) ([]byte, error) {
	return canonicalJSON(doc.Stripped())
}

// Normalize strips volatile fields and returns a deep, JSON-shaped copy of doc:
// maps become map[string]any, slices []any and numbers json.Number.
// Values that cannot be canonically serialised yield *domain.ContentError.
func (c *ChecksumEngine) Normalize(doc domain.WorkflowDocument) (domain.WorkflowDocument, error) {
	return normalizeDocument(doc.Stripped())
}

// Snapshot returns a normalised deep copy of the full document, volatile
// fields included, suitable for storing as an immutable version snapshot.
func (c *ChecksumEngine) Snapshot(doc domain.WorkflowDocument) (domain.WorkflowDocument, error) {
	return normalizeDocument(doc)
}

func canonicalJSON(doc domain.WorkflowDocument) ([]byte, error) {
	if doc == nil {
		doc = domain.WorkflowDocument{}
	}

	// encoding/json sorts map keys at every level; encode per top-level key
	// first so a failure can name the offending field.
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := checkUTF8(k, doc[k]); err != nil {
			return nil, &domain.ContentError{Field: k, Err: err}
		}
		key, err := encodeCompact(k)
		if err != nil {
			return nil, &domain.ContentError{Field: k, Err: err}
		}
		val, err := encodeCompact(doc[k])
		if err != nil {
			return nil, &domain.ContentError{Field: k, Err: err}
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var errInvalidUTF8 = errors.New("invalid UTF-8")

// checkUTF8 rejects strings and map keys that are not valid UTF-8, which
// encoding/json would otherwise replace with U+FFFD.
func checkUTF8(key string, v any) error {
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w in key %q", errInvalidUTF8, key)
	}
	switch val := v.(type) {
	case string:
		if !utf8.ValidString(val) {
			return fmt.Errorf("%w in value of %q", errInvalidUTF8, key)
		}
	case map[string]any:
		for k, item := range val {
			if err := checkUTF8(k, item); err != nil {
				return err
			}
		}
	case domain.WorkflowDocument:
		return checkUTF8(key, map[string]any(val))
	case []any:
		for _, item := range val {
			if err := checkUTF8(key, item); err != nil {
				return err
			}
		}
	case map[string]string:
		for k, item := range val {
			if err := checkUTF8(k, item); err != nil {
				return err
			}
		}
	case []string:
		for _, item := range val {
			if err := checkUTF8(key, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func normalizeDocument(doc domain.WorkflowDocument) (domain.WorkflowDocument, error) {
	canonical, err := canonicalJSON(doc)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(canonical))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, &domain.ContentError{Err: err}
	}
	return domain.WorkflowDocument(out), nil
}
