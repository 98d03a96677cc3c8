package model

import "time"

// ReviewComment is one finding attached to a completed review.
//
// Once the owning review completes, only IsResolved and Feedback may change;
// everything else is immutable.
type ReviewComment struct {
	ID            int64
	ReviewID      string
	FilePath      string
	Line          int // 0 when the finding is file-level rather than line-level.
	Category      Category
	Severity      Severity
	Title         string
	Message       string
	Suggestion    string // Proposed remediation text; empty when none was offered.
	OriginalCode  string
	SuggestedCode string
	IsResolved    bool
	Feedback      Feedback
	CreatedAt     time.Time
}
