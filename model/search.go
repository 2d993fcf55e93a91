package model

// SearchConfig represents configuration for a semantic fragment search
type SearchConfig struct {
	// Maximum number of results to return
	Limit int `json:"limit"`
	// Minimum cosine similarity a result must reach
	MinSimilarity float64 `json:"min_similarity,omitempty"`
	// EntityID scopes the search to one entity's fragments when set
	EntityID *int64 `json:"entity_id,omitempty"`
	// CandidateFactor bounds the unscoped scan to Limit*CandidateFactor
	// embedded fragments. The scan is brute force on purpose, see the
	// search engine documentation.
	CandidateFactor int `json:"candidate_factor,omitempty"`
}

// DefaultSearchConfig returns a sensible default configuration
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Limit:           5,
		MinSimilarity:   0.7,
		CandidateFactor: 10,
	}
}

// SearchResult is one fragment matched by a semantic search
type SearchResult struct {
	Fragment   *ContentFragment `json:"fragment"`
	Similarity float64          `json:"similarity"`
}
