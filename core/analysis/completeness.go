package analysis

import (
	"context"
	"fmt"

	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
)

const (
	missingFragmentsPenalty     = 20
	noEmbeddingPenalty          = 10
	missingRelationshipsPenalty = 15
	missingTimelinePenalty      = 10
)

// CompletenessAnalyzer scores how much descriptive material an entity has:
// content fragments, embedding coverage, outgoing relationships and
// timeline events.
type CompletenessAnalyzer struct {
	fragments     FragmentSource
	relationships RelationshipSource
	timeline      TimelineSource
}

// NewCompletenessAnalyzer creates a new completeness analyzer
func NewCompletenessAnalyzer(fragments FragmentSource, relationships RelationshipSource, timeline TimelineSource) *CompletenessAnalyzer {
	return &CompletenessAnalyzer{
		fragments:     fragments,
		relationships: relationships,
		timeline:      timeline,
	}
}

// AnalyzeCompleteness computes the completeness score of an entity starting
// from 100 and deducting per missing aspect, clamped at 0.
// Missing fragments and missing embeddings are mutually exclusive issues:
// an entity without any fragments is only penalized for the fragments.
func (a *CompletenessAnalyzer) AnalyzeCompleteness(ctx context.Context, entityID int64) (int, []model.IssueCode, error) {
	if entityID <= 0 {
		return 0, nil, helper.NewError("validate entity id", fmt.Errorf("%w: entity id must be positive, got %d", model.ErrValidation, entityID))
	}

	score := 100
	var issues []model.IssueCode

	fragments, err := a.fragments.SelectFragmentsByEntity(entityID)
	if err != nil {
		return 0, nil, helper.NewError("select fragments", err)
	}
	if len(fragments) == 0 {
		score -= missingFragmentsPenalty
		issues = append(issues, model.IssueMissingFragments)
	} else if !anyFragmentEmbedded(fragments) {
		score -= noEmbeddingPenalty
		issues = append(issues, model.IssueNoEmbedding)
	}

	relationships, err := a.relationships.SelectRelationshipsBySource(entityID)
	if err != nil {
		return 0, nil, helper.NewError("select relationships", err)
	}
	if len(relationships) == 0 {
		score -= missingRelationshipsPenalty
		issues = append(issues, model.IssueMissingRelationships)
	}

	events, err := a.timeline.SelectTimelineEventsByEntity(entityID)
	if err != nil {
		return 0, nil, helper.NewError("select timeline events", err)
	}
	if len(events) == 0 {
		score -= missingTimelinePenalty
		issues = append(issues, model.IssueMissingTimeline)
	}

	if score < 0 {
		score = 0
	}

	return score, issues, nil
}

func anyFragmentEmbedded(fragments []*model.ContentFragment) bool {
	for _, fragment := range fragments {
		if fragment.HasEmbedding() {
			return true
		}
	}
	return false
}
