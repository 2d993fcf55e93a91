package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityMetricsValidate(t *testing.T) {
	t.Run("Valid metrics", func(t *testing.T) {
		metrics := &QualityMetrics{
			EntityID:          1,
			CompletenessScore: 80,
			ConsistencyScore:  100,
			Issues:            []IssueCode{IssueMissingFragments, IssueMissingTimeline},
		}
		assert.NoError(t, metrics.Validate())
	})

	t.Run("Invalid entity id", func(t *testing.T) {
		metrics := &QualityMetrics{CompletenessScore: 50, ConsistencyScore: 50}
		assert.ErrorIs(t, metrics.Validate(), ErrValidation)
	})

	t.Run("Score out of range", func(t *testing.T) {
		metrics := &QualityMetrics{EntityID: 1, CompletenessScore: 101, ConsistencyScore: 50}
		assert.ErrorIs(t, metrics.Validate(), ErrValidation)

		metrics = &QualityMetrics{EntityID: 1, CompletenessScore: 50, ConsistencyScore: -1}
		assert.ErrorIs(t, metrics.Validate(), ErrValidation)
	})

	t.Run("Duplicate issue codes", func(t *testing.T) {
		metrics := &QualityMetrics{
			EntityID:          1,
			CompletenessScore: 50,
			ConsistencyScore:  50,
			Issues:            []IssueCode{IssueNoEmbedding, IssueNoEmbedding},
		}
		assert.ErrorIs(t, metrics.Validate(), ErrValidation)
	})
}

func TestDedupeIssueCodes(t *testing.T) {
	deduped := DedupeIssueCodes([]IssueCode{
		IssueMissingFragments,
		IssueOrphanRelationship,
		IssueMissingFragments,
		IssueCircularRelationship,
		IssueOrphanRelationship,
	})
	assert.Equal(t, []IssueCode{
		IssueMissingFragments,
		IssueOrphanRelationship,
		IssueCircularRelationship,
	}, deduped, "Expected first occurrence order to be kept")
}

func TestIssueCodeStringRoundTrip(t *testing.T) {
	issues := []IssueCode{IssueMissingRelationships, IssueDuplicateRelationship}
	assert.Equal(t, issues, IssueCodesFromStrings(IssueCodesToStrings(issues)))
}
