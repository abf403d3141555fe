// Package domain defines the core business entities for flowver.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - WorkflowDocument: The opaque tracked content (nodes, connections, metadata)
//   - Version: An immutable, fully snapshotted revision of a workflow
//   - VersionHistory: The append-only sequence of versions for one workflow
//   - ChangeRecord: The structural difference between two snapshots
//   - SemVer and BumpType: Semantic version arithmetic
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
