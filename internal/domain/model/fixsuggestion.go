package model

// FixSuggestion is a derived, never-persisted candidate remediation for one
// review comment. The same comment always maps to the same suggestion.
type FixSuggestion struct {
	ID             string
	CommentID      int64
	Line           int
	IssueType      Category
	Severity       Severity
	OriginalCode   string
	SuggestedCode  string
	Explanation    string
	Confidence     float64
	AutoApplicable bool
}

// FixOutcome records the per-item result for one fix in a bulk batch.
type FixOutcome struct {
	FixID  string `json:"fix_id"`
	Reason string `json:"reason,omitempty"`
}

// BulkFixResult aggregates the per-item outcomes of one bulk apply call.
// Every requested fix id lands in exactly one of the three lists.
type BulkFixResult struct {
	Applied []FixOutcome `json:"applied"`
	Failed  []FixOutcome `json:"failed"`
	Skipped []FixOutcome `json:"skipped"`
}

// Total returns the number of fix ids accounted for across all lists.
func (r BulkFixResult) Total() int {
	return len(r.Applied) + len(r.Failed) + len(r.Skipped)
}
