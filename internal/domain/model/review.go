package model

import "time"

// Scores holds the four 0-100 quality scores produced by one analysis run.
type Scores struct {
	Overall         int
	Security        int
	Performance     int
	Maintainability int
}

// Review represents one persisted analysis run over a subject.
//
// Status moves pending -> in_progress -> completed|failed and never backwards.
// Scores, summary, recommendations, and comments are populated only when the
// review reaches completed.
type Review struct {
	ID              string
	SubjectID       int64
	ReviewType      ReviewType
	Status          ReviewStatus
	Scores          Scores
	Summary         string
	Recommendations []string
	ModelUsed       string
	TokensUsed      int
	Duration        time.Duration
	FailureReason   string
	CreatedAt       time.Time
	StartedAt       time.Time
	CompletedAt     time.Time
}
