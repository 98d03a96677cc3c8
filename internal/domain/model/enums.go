package model

// ReviewStatus represents the lifecycle state of a review.
type ReviewStatus string

const (
	ReviewStatusPending    ReviewStatus = "pending"
	ReviewStatusInProgress ReviewStatus = "in_progress"
	ReviewStatusCompleted  ReviewStatus = "completed"
	ReviewStatusFailed     ReviewStatus = "failed"
)

// IsTerminal returns true for states that admit no further transitions.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusCompleted || s == ReviewStatusFailed
}

// ReviewType selects the analysis focus requested from the provider.
type ReviewType string

const (
	ReviewTypeFull        ReviewType = "full"
	ReviewTypeSecurity    ReviewType = "security"
	ReviewTypePerformance ReviewType = "performance"
	ReviewTypeQuick       ReviewType = "quick"
)

// ValidReviewType reports whether t is one of the supported review types.
func ValidReviewType(t ReviewType) bool {
	switch t {
	case ReviewTypeFull, ReviewTypeSecurity, ReviewTypePerformance, ReviewTypeQuick:
		return true
	}
	return false
}

// Severity represents how serious a review finding is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns a sort rank for the severity; lower is more severe.
// Unknown severities rank after low so they never displace real findings.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Category classifies what aspect of the code a finding concerns.
type Category string

const (
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryMaintainability Category = "maintainability"
	CategoryStyle           Category = "style"
	CategoryBug             Category = "bug"
	CategoryTesting         Category = "testing"
	CategoryGeneral         Category = "general"
)

// Feedback is the user's verdict on a review comment.
type Feedback string

const (
	FeedbackNone      Feedback = "none"
	FeedbackHelpful   Feedback = "helpful"
	FeedbackUnhelpful Feedback = "unhelpful"
)

// ValidFeedback reports whether f is a supported feedback value.
func ValidFeedback(f Feedback) bool {
	switch f {
	case FeedbackNone, FeedbackHelpful, FeedbackUnhelpful:
		return true
	}
	return false
}
