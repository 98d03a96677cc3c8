package application

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reviewdeck/reviewdeck/internal/domain/model"
)

// fixConfidence is the fixed confidence attached to every derived fix. There
// is no learned signal behind it, so it never varies between calls.
const fixConfidence = 0.85

const fixIDPrefix = "fix-"

// FixID returns the deterministic fix id for a comment.
func FixID(commentID int64) string {
	return fmt.Sprintf("%s%d", fixIDPrefix, commentID)
}

// categorySample pairs a category keyword with representative original/fixed
// snippets, used when a comment carries no code of its own. First match wins.
type categorySample struct {
	keyword  string
	original string
	fixed    string
}

var categorySamples = []categorySample{
	{
		keyword:  "security",
		original: "query := \"SELECT * FROM users WHERE id = \" + userID\nrows, err := db.Query(query)",
		fixed:    "rows, err := db.Query(\"SELECT * FROM users WHERE id = ?\", userID)",
	},
	{
		keyword:  "performance",
		original: "var result string\nfor _, item := range items {\n\tresult += item\n}",
		fixed:    "var sb strings.Builder\nfor _, item := range items {\n\tsb.WriteString(item)\n}\nresult := sb.String()",
	},
	{
		keyword:  "maintainability",
		original: "if retries > 3 {\n\treturn errGiveUp\n}",
		fixed:    "const maxRetries = 3\n\nif retries > maxRetries {\n\treturn errGiveUp\n}",
	},
	{
		keyword:  "style",
		original: "if ok == true {\n\tdoWork()\n}",
		fixed:    "if ok {\n\tdoWork()\n}",
	},
}

// genericSample is the fallback pair when no category keyword matches.
var genericSample = categorySample{
	original: "// existing implementation",
	fixed:    "// revised implementation addressing the review comment",
}

// SuggestFix maps a review comment to its candidate fix. It is pure: the same
// comment always yields the same suggestion. Comments without suggestion text
// yield no fix. Critical findings are never auto-applicable; that is a safety
// rule, not a heuristic.
func SuggestFix(c model.ReviewComment) (model.FixSuggestion, bool) {
	if c.Suggestion == "" {
		return model.FixSuggestion{}, false
	}

	original := c.OriginalCode
	suggested := c.SuggestedCode
	if original == "" || suggested == "" {
		sample := sampleForCategory(c.Category)
		if original == "" {
			original = sample.original
		}
		if suggested == "" {
			suggested = sample.fixed
		}
	}

	return model.FixSuggestion{
		ID:             FixID(c.ID),
		CommentID:      c.ID,
		Line:           c.Line,
		IssueType:      c.Category,
		Severity:       c.Severity,
		OriginalCode:   original,
		SuggestedCode:  suggested,
		Explanation:    c.Suggestion,
		Confidence:     fixConfidence,
		AutoApplicable: c.Severity != model.SeverityCritical,
	}, true
}

// SuggestFixes derives fixes for all comments that have one and orders them
// most severe first. The sort is stable, so ties keep provider comment order.
func SuggestFixes(comments []model.ReviewComment) []model.FixSuggestion {
	fixes := make([]model.FixSuggestion, 0, len(comments))
	for _, c := range comments {
		if fix, ok := SuggestFix(c); ok {
			fixes = append(fixes, fix)
		}
	}

	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].Severity.Rank() < fixes[j].Severity.Rank()
	})

	return fixes
}

func sampleForCategory(category model.Category) categorySample {
	lower := strings.ToLower(string(category))
	for _, sample := range categorySamples {
		if strings.Contains(lower, sample.keyword) {
			return sample
		}
	}
	return genericSample
}
