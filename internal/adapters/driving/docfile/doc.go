// Package docfile reads workflow documents from JSON and YAML files and
// resolves the workflow ID a document is versioned under.
package docfile
