package model

import (
	"fmt"
	"time"
)

// IssueCode is the closed enumeration of quality issues an analysis can report
type IssueCode string

const (
	IssueMissingFragments      IssueCode = "MISSING_FRAGMENTS"
	IssueNoEmbedding           IssueCode = "NO_EMBEDDING"
	IssueMissingRelationships  IssueCode = "MISSING_RELATIONSHIPS"
	IssueMissingTimeline       IssueCode = "MISSING_TIMELINE"
	IssueOrphanRelationship    IssueCode = "ORPHAN_RELATIONSHIP"
	IssueCircularRelationship  IssueCode = "CIRCULAR_RELATIONSHIP"
	IssueDuplicateRelationship IssueCode = "DUPLICATE_RELATIONSHIP"
)

// QualityMetrics is the persisted analysis result for one entity.
// There is at most one live row per entity id; recomputation overwrites it.
type QualityMetrics struct {
	EntityID          int64       `json:"entity_id"`
	CompletenessScore int         `json:"completeness_score"`
	ConsistencyScore  int         `json:"consistency_score"`
	Issues            []IssueCode `json:"issues"`
	ComputedAt        time.Time   `json:"computed_at"`
}

// Validate checks the metrics fields before persistence
func (m *QualityMetrics) Validate() error {
	if m.EntityID <= 0 {
		return fmt.Errorf("%w: entity id must be positive, got %d", ErrValidation, m.EntityID)
	}
	if m.CompletenessScore < 0 || m.CompletenessScore > 100 {
		return fmt.Errorf("%w: completeness score %d out of range [0,100]", ErrValidation, m.CompletenessScore)
	}
	if m.ConsistencyScore < 0 || m.ConsistencyScore > 100 {
		return fmt.Errorf("%w: consistency score %d out of range [0,100]", ErrValidation, m.ConsistencyScore)
	}
	seen := make(map[IssueCode]bool, len(m.Issues))
	for _, issue := range m.Issues {
		if seen[issue] {
			return fmt.Errorf("%w: duplicate issue code %s", ErrValidation, issue)
		}
		seen[issue] = true
	}
	return nil
}

// DedupeIssueCodes removes repeated codes keeping the first occurrence order
func DedupeIssueCodes(issues []IssueCode) []IssueCode {
	seen := make(map[IssueCode]bool, len(issues))
	deduped := make([]IssueCode, 0, len(issues))
	for _, issue := range issues {
		if seen[issue] {
			continue
		}
		seen[issue] = true
		deduped = append(deduped, issue)
	}
	return deduped
}

// IssueCodesToStrings converts issue codes for text[] storage
func IssueCodesToStrings(issues []IssueCode) []string {
	strs := make([]string, len(issues))
	for i, issue := range issues {
		strs[i] = string(issue)
	}
	return strs
}

// IssueCodesFromStrings converts text[] storage values back to issue codes
func IssueCodesFromStrings(strs []string) []IssueCode {
	issues := make([]IssueCode, len(strs))
	for i, s := range strs {
		issues[i] = IssueCode(s)
	}
	return issues
}
