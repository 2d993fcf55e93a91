package analysis

import (
	"context"
	"fmt"

	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
)

const (
	// maxCycleDepth bounds the cycle detection to self-references and
	// two-entity loops. Longer cycles are legitimate narrative structure
	// (A mentors B, B serves C, C opposes A) and are not penalized.
	maxCycleDepth = 2

	orphanPenalty    = 20
	circularPenalty  = 15
	duplicatePenalty = 10
)

// GraphAnalyzer scores the relationship consistency of a single entity.
// Each issue class is penalized at most once per analysis, regardless of
// how many relationships exhibit it.
type GraphAnalyzer struct {
	entities      EntitySource
	relationships RelationshipSource
}

// NewGraphAnalyzer creates a new consistency analyzer
func NewGraphAnalyzer(entities EntitySource, relationships RelationshipSource) *GraphAnalyzer {
	return &GraphAnalyzer{
		entities:      entities,
		relationships: relationships,
	}
}

// AnalyzeConsistency computes the consistency score of an entity starting
// from 100 and deducting per detected issue class, clamped at 0.
// An entity with no outgoing relationships scores a perfect 100.
// Issues are reported in detection order: orphan, circular, duplicate.
func (a *GraphAnalyzer) AnalyzeConsistency(ctx context.Context, entityID int64) (int, []model.IssueCode, error) {
	if entityID <= 0 {
		return 0, nil, helper.NewError("validate entity id", fmt.Errorf("%w: entity id must be positive, got %d", model.ErrValidation, entityID))
	}

	relationships, err := a.relationships.SelectRelationshipsBySource(entityID)
	if err != nil {
		return 0, nil, helper.NewError("select relationships", err)
	}

	score := 100
	var issues []model.IssueCode

	orphaned, err := a.hasOrphanRelationship(relationships)
	if err != nil {
		return 0, nil, err
	}
	if orphaned {
		score -= orphanPenalty
		issues = append(issues, model.IssueOrphanRelationship)
	}

	circular, err := a.hasCircularRelationship(entityID, relationships)
	if err != nil {
		return 0, nil, err
	}
	if circular {
		score -= circularPenalty
		issues = append(issues, model.IssueCircularRelationship)
	}

	if hasDuplicateRelationship(relationships) {
		score -= duplicatePenalty
		issues = append(issues, model.IssueDuplicateRelationship)
	}

	if score < 0 {
		score = 0
	}

	return score, issues, nil
}

// hasOrphanRelationship reports whether any relationship points at an
// entity that does not exist. Target ids are not foreign keys, so a
// deleted target leaves its incoming relationships dangling.
func (a *GraphAnalyzer) hasOrphanRelationship(relationships []*model.Relationship) (bool, error) {
	checked := make(map[int64]bool, len(relationships))
	for _, relationship := range relationships {
		if checked[relationship.TargetID] {
			continue
		}
		checked[relationship.TargetID] = true

		exists, err := a.entities.EntityExists(relationship.TargetID)
		if err != nil {
			return false, helper.NewError("check target entity", err)
		}
		if !exists {
			return true, nil
		}
	}
	return false, nil
}

// hasCircularRelationship reports whether the entity participates in a
// cycle of length at most maxCycleDepth: a self-reference, or a target
// that points straight back.
func (a *GraphAnalyzer) hasCircularRelationship(entityID int64, relationships []*model.Relationship) (bool, error) {
	checked := make(map[int64]bool, len(relationships))
	for _, relationship := range relationships {
		if relationship.TargetID == entityID {
			return true, nil
		}
		if checked[relationship.TargetID] {
			continue
		}
		checked[relationship.TargetID] = true

		back, err := a.relationships.SelectRelationshipsBySource(relationship.TargetID)
		if err != nil {
			return false, helper.NewError("select target relationships", err)
		}
		for _, backRelationship := range back {
			if backRelationship.TargetID == entityID {
				return true, nil
			}
		}
	}
	return false, nil
}

// hasDuplicateRelationship reports whether two relationships share the
// same target and type. Strength and validity interval do not
// distinguish relationships for this check.
func hasDuplicateRelationship(relationships []*model.Relationship) bool {
	type signature struct {
		targetID int64
		relType  string
	}

	seen := make(map[signature]bool, len(relationships))
	for _, relationship := range relationships {
		sig := signature{targetID: relationship.TargetID, relType: relationship.Type}
		if seen[sig] {
			return true
		}
		seen[sig] = true
	}
	return false
}
