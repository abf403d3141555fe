package services

import "github.com/custodia-labs/flowver/internal/core/domain"

// BumpAdvisor maps a change record to a suggested semantic version bump.
//
// Rules are evaluated in order and the first match wins:
//  1. removed nodes, removed connections, or an executable node change -> major
//  2. added nodes or added connections -> minor
//  3. any remaining non-structural change -> patch
//  4. an empty record -> none
//
// The advice is non-binding; callers may override it with a hint.
type BumpAdvisor struct{}

// NewBumpAdvisor creates a new BumpAdvisor.
func NewBumpAdvisor() *BumpAdvisor {
	return &BumpAdvisor{}
}

// Suggest classifies the change record.
func (a *BumpAdvisor) Suggest(changes domain.ChangeRecord) domain.BumpType {
	if changes.HasRemovals() {
		return domain.BumpMajor
	}
	for _, node := range changes.ModifiedNodes {
		if node.Executable() {
			return domain.BumpMajor
		}
	}

	if len(changes.AddedNodes) > 0 || len(changes.AddedConnections) > 0 {
		return domain.BumpMinor
	}

	if !changes.IsEmpty() {
		return domain.BumpPatch
	}
	return domain.BumpNone
}

// Resolve applies a caller hint over the advice. BumpAuto defers to the advisor.
func (a *BumpAdvisor) Resolve(changes domain.ChangeRecord, hint domain.BumpType) domain.BumpType {
	if hint != domain.BumpAuto {
		return hint
	}
	return a.Suggest(changes)
}
