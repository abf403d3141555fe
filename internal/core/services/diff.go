package services

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

// DiffEngine computes structural change records between two document snapshots.
//
// Nodes are compared as a set keyed by name, so reordering or moving nodes on
// the canvas never registers as a change. Connections are flattened to edges
// and compared as a set.
type DiffEngine struct {
	checksum *ChecksumEngine
}

// NewDiffEngine creates a new DiffEngine.
func NewDiffEngine(checksum *ChecksumEngine) *DiffEngine {
	if checksum == nil {
		checksum = NewChecksumEngine()
	}
	return &DiffEngine{checksum: checksum}
}

// Diff returns the changes needed to turn from into to.
// Nil or absent nodes and connections are treated as empty.
func (d *DiffEngine) Diff(from, to domain.WorkflowDocument) (domain.ChangeRecord, error) {
	var record domain.ChangeRecord

	oldDoc, err := d.checksum.Normalize(from)
	if err != nil {
		return record, err
	}
	newDoc, err := d.checksum.Normalize(to)
	if err != nil {
		return record, err
	}

	oldNodes, err := extractNodes(oldDoc[domain.FieldNodes])
	if err != nil {
		return record, err
	}
	newNodes, err := extractNodes(newDoc[domain.FieldNodes])
	if err != nil {
		return record, err
	}
	record.AddedNodes, record.RemovedNodes, record.ModifiedNodes = diffNodes(oldNodes, newNodes)

	oldEdges, err := extractConnections(oldDoc[domain.FieldConnections])
	if err != nil {
		return record, err
	}
	newEdges, err := extractConnections(newDoc[domain.FieldConnections])
	if err != nil {
		return record, err
	}
	record.AddedConnections = edgeDifference(newEdges, oldEdges)
	record.RemovedConnections = edgeDifference(oldEdges, newEdges)

	record.ChangedFields = diffTopLevel(oldDoc, newDoc)
	return record, nil
}

// ==================== Nodes ====================

// extractNodes indexes the nodes collection by identity key.
// Keys are the node name, falling back to its id, then its position in the list.
func extractNodes(raw any) (map[string]map[string]any, error) {
	nodes := make(map[string]map[string]any)

	switch v := raw.(type) {
	case nil:
		return nodes, nil

	case []any:
		for i, item := range v {
			node, ok := item.(map[string]any)
			if !ok {
				return nil, &domain.ContentError{
					Field: domain.FieldNodes,
					Err:   fmt.Errorf("node %d is %T, want object", i, item),
				}
			}
			key := nodeKey(node, i)
			if _, dup := nodes[key]; dup {
				key = uniqueKey(nodes, key)
			}
			nodes[key] = node
		}
		return nodes, nil

	case map[string]any:
		for name, item := range v {
			node, ok := item.(map[string]any)
			if !ok {
				return nil, &domain.ContentError{
					Field: domain.FieldNodes,
					Err:   fmt.Errorf("node %q is %T, want object", name, item),
				}
			}
			nodes[name] = node
		}
		return nodes, nil

	default:
		return nil, &domain.ContentError{
			Field: domain.FieldNodes,
			Err:   fmt.Errorf("nodes is %T, want list", raw),
		}
	}
}

func nodeKey(node map[string]any, index int) string {
	if name, ok := node["name"].(string); ok && name != "" {
		return name
	}
	if id, ok := node["id"].(string); ok && id != "" {
		return id
	}
	return "#" + strconv.Itoa(index)
}

func uniqueKey[V any](m map[string]V, key string) string {
	for n := 2; ; n++ {
		candidate := key + "#" + strconv.Itoa(n)
		if _, exists := m[candidate]; !exists {
			return candidate
		}
	}
}

func diffNodes(old, cur map[string]map[string]any) (added, removed []string, modified []domain.NodeChange) {
	for name := range cur {
		if _, ok := old[name]; !ok {
			added = append(added, name)
		}
	}
	for name, oldNode := range old {
		newNode, ok := cur[name]
		if !ok {
			removed = append(removed, name)
			continue
		}
		if changes := diffNodeFields(oldNode, newNode); len(changes) > 0 {
			modified = append(modified, domain.NodeChange{Name: name, Changes: changes})
		}
	}

	sort.Strings(added)
	sort.Strings(removed)
	sort.Slice(modified, func(i, j int) bool { return modified[i].Name < modified[j].Name })
	return added, removed, modified
}

func diffNodeFields(old, cur map[string]any) []domain.FieldChange {
	var changes []domain.FieldChange

	for _, field := range unionKeys(old, cur) {
		if domain.IsIgnoredNodeField(field) {
			continue
		}
		before, after := old[field], cur[field]

		if field == "parameters" {
			bp, okB := asObject(before)
			ap, okA := asObject(after)
			if okB && okA {
				for _, key := range unionKeys(bp, ap) {
					if !reflect.DeepEqual(bp[key], ap[key]) {
						changes = append(changes, domain.FieldChange{
							Field:  "parameters." + key,
							Before: bp[key],
							After:  ap[key],
						})
					}
				}
				continue
			}
		}

		if !reflect.DeepEqual(before, after) {
			changes = append(changes, domain.FieldChange{Field: field, Before: before, After: after})
		}
	}
	return changes
}

// asObject treats an absent value as an empty object.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case nil:
		return map[string]any{}, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// ==================== Connections ====================

// extractConnections flattens the connection graph into a set of edges.
//
// Two shapes are accepted:
//   - map form: {"Source": {"main": [[{"node": "Target", "type": "main", "index": 0}]]}}
//   - list form: [{"source": "A", "target": "B", ...}]
func extractConnections(raw any) (map[string]domain.Connection, error) {
	edges := make(map[string]domain.Connection)

	switch v := raw.(type) {
	case nil:
		return edges, nil

	case map[string]any:
		for source, outputs := range v {
			if err := addMapEdges(edges, source, outputs); err != nil {
				return nil, err
			}
		}
		return edges, nil

	case []any:
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, connectionError("connection %d is %T, want object", i, item)
			}
			edge := domain.Connection{
				Source:      firstString(obj, "source", "from"),
				SourceType:  firstString(obj, "source_type", "sourceType"),
				SourceIndex: firstInt(obj, "source_index", "sourceIndex"),
				Target:      firstString(obj, "target", "to"),
				TargetType:  firstString(obj, "target_type", "targetType", "type"),
				TargetIndex: firstInt(obj, "target_index", "targetIndex", "index"),
			}
			if edge.Source == "" || edge.Target == "" {
				return nil, connectionError("connection %d has no source or target", i)
			}
			edges[edge.Key()] = edge
		}
		return edges, nil

	default:
		return nil, connectionError("connections is %T, want object or list", raw)
	}
}

func addMapEdges(edges map[string]domain.Connection, source string, outputs any) error {
	if outputs == nil {
		return nil
	}
	byType, ok := outputs.(map[string]any)
	if !ok {
		return connectionError("outputs of %q are %T, want object", source, outputs)
	}

	for outputType, slots := range byType {
		if slots == nil {
			continue
		}
		slotList, ok := slots.([]any)
		if !ok {
			return connectionError("%q output %q is %T, want list", source, outputType, slots)
		}
		for slotIndex, slot := range slotList {
			if slot == nil {
				continue
			}
			targets, ok := slot.([]any)
			if !ok {
				return connectionError("%q output %q slot %d is %T, want list", source, outputType, slotIndex, slot)
			}
			for _, t := range targets {
				target, ok := t.(map[string]any)
				if !ok {
					return connectionError("%q output %q slot %d has %T target", source, outputType, slotIndex, t)
				}
				edge := domain.Connection{
					Source:      source,
					SourceType:  outputType,
					SourceIndex: slotIndex,
					Target:      firstString(target, "node"),
					TargetType:  firstString(target, "type"),
					TargetIndex: firstInt(target, "index"),
				}
				edges[edge.Key()] = edge
			}
		}
	}
	return nil
}

func connectionError(format string, args ...any) error {
	return &domain.ContentError{Field: domain.FieldConnections, Err: fmt.Errorf(format, args...)}
}

// edgeDifference returns edges in a that are not in b, sorted.
func edgeDifference(a, b map[string]domain.Connection) []domain.Connection {
	var out []domain.Connection
	for key, edge := range a {
		if _, ok := b[key]; !ok {
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// ==================== Top-level fields ====================

func diffTopLevel(old, cur domain.WorkflowDocument) []domain.FieldChange {
	var changes []domain.FieldChange
	for _, field := range unionKeys(old, cur) {
		if field == domain.FieldNodes || field == domain.FieldConnections {
			continue
		}
		if !reflect.DeepEqual(old[field], cur[field]) {
			changes = append(changes, domain.FieldChange{Field: field, Before: old[field], After: cur[field]})
		}
	}
	return changes
}

// ==================== Helpers ====================

func unionKeys[M ~map[string]any](a, b M) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, m := range []M{a, b} {
		for k := range m {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok {
			return s
		}
	}
	return ""
}

func firstInt(obj map[string]any, keys ...string) int {
	for _, k := range keys {
		switch n := obj[k].(type) {
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return 0
}
