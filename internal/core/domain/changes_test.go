package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExecutableField(t *testing.T) {
	assert.True(t, IsExecutableField("type"))
	assert.True(t, IsExecutableField("parameters"))
	assert.True(t, IsExecutableField("parameters.url"))
	assert.True(t, IsExecutableField("credentials"))
	assert.False(t, IsExecutableField("notes"))
	assert.False(t, IsExecutableField("color"))
}

func TestIsIgnoredNodeField(t *testing.T) {
	assert.True(t, IsIgnoredNodeField("position"))
	assert.True(t, IsIgnoredNodeField("id"))
	assert.False(t, IsIgnoredNodeField("parameters"))
}

func TestNodeChange_Executable(t *testing.T) {
	cosmetic := NodeChange{Name: "A", Changes: []FieldChange{{Field: "notes"}}}
	executable := NodeChange{Name: "A", Changes: []FieldChange{{Field: "notes"}, {Field: "parameters.url"}}}

	assert.False(t, cosmetic.Executable())
	assert.True(t, executable.Executable())
	assert.Equal(t, []string{"notes", "parameters.url"}, executable.Fields())
}

func TestConnection_Key(t *testing.T) {
	a := Connection{Source: "A", SourceType: "main", Target: "B", TargetType: "main"}
	b := Connection{Source: "A", SourceType: "main", Target: "B", TargetType: "main", TargetIndex: 1}

	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, "A -> B", a.String())
}

func TestChangeRecord_Predicates(t *testing.T) {
	var empty ChangeRecord
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.HasStructuralChanges())
	assert.False(t, empty.HasRemovals())

	cosmetic := ChangeRecord{ChangedFields: []FieldChange{{Field: "name"}}}
	assert.False(t, cosmetic.IsEmpty())
	assert.False(t, cosmetic.HasStructuralChanges())

	removal := ChangeRecord{RemovedConnections: []Connection{{Source: "A", Target: "B"}}}
	assert.True(t, removal.HasStructuralChanges())
	assert.True(t, removal.HasRemovals())
}

func TestChangeRecord_Summary(t *testing.T) {
	assert.Equal(t, "no changes", ChangeRecord{}.Summary())

	record := ChangeRecord{
		AddedNodes:    []string{"Slack"},
		RemovedNodes:  []string{"Email"},
		ModifiedNodes: []NodeChange{{Name: "HTTP", Changes: []FieldChange{{Field: "parameters.url"}}}},
		AddedConnections: []Connection{
			{Source: "Start", Target: "Slack"},
		},
		ChangedFields: []FieldChange{{Field: "name"}},
	}

	assert.Equal(t,
		"added nodes: Slack; removed nodes: Email; modified nodes: HTTP (parameters.url); "+
			"added connections: Start -> Slack; changed fields: name",
		record.Summary())
}
