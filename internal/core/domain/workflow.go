package domain

// Top-level fields the diff engine inspects.
const (
	FieldNodes       = "nodes"
	FieldConnections = "connections"
)

// volatileFields change on every export without representing a content change.
// The list is fixed so identical inputs checksum identically everywhere.
var volatileFields = [...]string{
	"createdAt",
	"updatedAt",
	"id",
	"versionId",
	"updatedBy",
	"meta",
	"metadata",
}

// WorkflowDocument is an opaque nested key/value document.
// The engine only reads it and stores deep-copied snapshots.
type WorkflowDocument map[string]any

// VolatileFields returns the fixed list of top-level fields ignored by
// checksums and diffs.
func VolatileFields() []string {
	out := make([]string, len(volatileFields))
	copy(out, volatileFields[:])
	return out
}

// IsVolatileField returns true if name is a volatile top-level field.
func IsVolatileField(name string) bool {
	for _, f := range volatileFields {
		if f == name {
			return true
		}
	}
	return false
}

// Stripped returns a shallow copy of the document without volatile fields.
// Absent fields are skipped.
func (d WorkflowDocument) Stripped() WorkflowDocument {
	out := make(WorkflowDocument, len(d))
	for k, v := range d {
		if IsVolatileField(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of the document's maps and slices.
// Leaf values are shared; they are immutable in practice (strings, numbers, bools).
func (d WorkflowDocument) Clone() WorkflowDocument {
	if d == nil {
		return nil
	}
	out := make(WorkflowDocument, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// ID returns the document's own identifier field, if it carries a string one.
func (d WorkflowDocument) ID() string {
	if id, ok := d["id"].(string); ok {
		return id
	}
	return ""
}

// Name returns the document's name field, if present.
func (d WorkflowDocument) Name() string {
	if name, ok := d["name"].(string); ok {
		return name
	}
	return ""
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case WorkflowDocument:
		return val.Clone()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i], _ = cloneValue(item).(map[string]any)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
