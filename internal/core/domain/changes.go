package domain

import (
	"fmt"
	"strings"
)

// executableFields are node fields whose change alters what a workflow does.
// Parameter changes are reported as "parameters.<key>" and are executable too.
var executableFields = [...]string{
	"type",
	"typeVersion",
	"parameters",
	"credentials",
	"disabled",
}

// ignoredNodeFields never register as node modifications.
var ignoredNodeFields = [...]string{
	"position",
	"id",
}

// IsExecutableField returns true if a node field change is structural.
func IsExecutableField(field string) bool {
	root, _, _ := strings.Cut(field, ".")
	for _, f := range executableFields {
		if f == root {
			return true
		}
	}
	return false
}

// IsIgnoredNodeField returns true for presentation-only node fields.
func IsIgnoredNodeField(field string) bool {
	for _, f := range ignoredNodeFields {
		if f == field {
			return true
		}
	}
	return false
}

// FieldChange records one differing value.
type FieldChange struct {
	Field  string `json:"field"`
	Before any    `json:"before,omitempty"`
	After  any    `json:"after,omitempty"`
}

// NodeChange lists the field changes of a node present in both snapshots.
type NodeChange struct {
	Name    string        `json:"name"`
	Changes []FieldChange `json:"changes"`
}

// Executable returns true if any changed field is executable.
func (n NodeChange) Executable() bool {
	for _, c := range n.Changes {
		if IsExecutableField(c.Field) {
			return true
		}
	}
	return false
}

// Fields returns the changed field names.
func (n NodeChange) Fields() []string {
	out := make([]string, len(n.Changes))
	for i, c := range n.Changes {
		out[i] = c.Field
	}
	return out
}

// Connection is one edge of the connection graph.
type Connection struct {
	Source      string `json:"source"`
	SourceType  string `json:"source_type,omitempty"`
	SourceIndex int    `json:"source_index"`
	Target      string `json:"target"`
	TargetType  string `json:"target_type,omitempty"`
	TargetIndex int    `json:"target_index"`
}

// Key returns a stable identity for set operations.
func (c Connection) Key() string {
	return fmt.Sprintf("%s\x00%s\x00%d\x00%s\x00%s\x00%d",
		c.Source, c.SourceType, c.SourceIndex, c.Target, c.TargetType, c.TargetIndex)
}

// String renders the edge as "Source -> Target".
func (c Connection) String() string {
	return c.Source + " -> " + c.Target
}

// ChangeRecord aggregates the structural differences between two snapshots.
// An empty record means no semantic difference.
type ChangeRecord struct {
	AddedNodes         []string      `json:"added_nodes,omitempty"`
	RemovedNodes       []string      `json:"removed_nodes,omitempty"`
	ModifiedNodes      []NodeChange  `json:"modified_nodes,omitempty"`
	AddedConnections   []Connection  `json:"added_connections,omitempty"`
	RemovedConnections []Connection  `json:"removed_connections,omitempty"`
	ChangedFields      []FieldChange `json:"changed_fields,omitempty"`
}

// IsEmpty returns true if the record contains no changes at all.
func (r ChangeRecord) IsEmpty() bool {
	return !r.HasStructuralChanges() && len(r.ChangedFields) == 0
}

// HasStructuralChanges returns true if nodes or connections changed.
func (r ChangeRecord) HasStructuralChanges() bool {
	return len(r.AddedNodes) > 0 ||
		len(r.RemovedNodes) > 0 ||
		len(r.ModifiedNodes) > 0 ||
		len(r.AddedConnections) > 0 ||
		len(r.RemovedConnections) > 0
}

// HasRemovals returns true if any node or connection was removed.
func (r ChangeRecord) HasRemovals() bool {
	return len(r.RemovedNodes) > 0 || len(r.RemovedConnections) > 0
}

// Summary renders a one-line human description used as semantic_summary.
func (r ChangeRecord) Summary() string {
	if r.IsEmpty() {
		return "no changes"
	}

	var parts []string
	if len(r.AddedNodes) > 0 {
		parts = append(parts, "added nodes: "+strings.Join(r.AddedNodes, ", "))
	}
	if len(r.RemovedNodes) > 0 {
		parts = append(parts, "removed nodes: "+strings.Join(r.RemovedNodes, ", "))
	}
	if len(r.ModifiedNodes) > 0 {
		mods := make([]string, len(r.ModifiedNodes))
		for i, m := range r.ModifiedNodes {
			mods[i] = fmt.Sprintf("%s (%s)", m.Name, strings.Join(m.Fields(), ", "))
		}
		parts = append(parts, "modified nodes: "+strings.Join(mods, ", "))
	}
	if len(r.AddedConnections) > 0 {
		parts = append(parts, "added connections: "+joinConnections(r.AddedConnections))
	}
	if len(r.RemovedConnections) > 0 {
		parts = append(parts, "removed connections: "+joinConnections(r.RemovedConnections))
	}
	if len(r.ChangedFields) > 0 {
		fields := make([]string, len(r.ChangedFields))
		for i, f := range r.ChangedFields {
			fields[i] = f.Field
		}
		parts = append(parts, "changed fields: "+strings.Join(fields, ", "))
	}
	return strings.Join(parts, "; ")
}

func joinConnections(conns []Connection) string {
	out := make([]string, len(conns))
	for i, c := range conns {
		out[i] = c.String()
	}
	return strings.Join(out, ", ")
}
