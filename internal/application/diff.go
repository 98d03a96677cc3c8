package application

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffStats counts the changed lines in a computed diff.
type DiffStats struct {
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	TotalChanges int `json:"total_changes"`
}

// ComputeDiff produces a line-oriented unified diff between an original and a
// suggested code block, labeled "original"/"fixed", plus change statistics.
// Identical inputs yield an empty diff; an empty original yields pure
// additions and an empty suggested block pure deletions. The output is fully
// determined by the inputs.
func ComputeDiff(original, suggested string) ([]string, DiffStats, error) {
	ud := difflib.UnifiedDiff{
		A:        diffLines(original),
		B:        diffLines(suggested),
		FromFile: "original",
		ToFile:   "fixed",
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return nil, DiffStats{}, fmt.Errorf("compute diff: %w", err)
	}

	if text == "" {
		return nil, DiffStats{}, nil
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	// The first two lines are always the file headers. Everything after is
	// hunk headers and content; a content line may legitimately start with
	// ++ or --, so only the headers themselves are exempt from counting.
	var stats DiffStats
	for _, line := range lines[2:] {
		switch {
		case strings.HasPrefix(line, "+"):
			stats.Additions++
		case strings.HasPrefix(line, "-"):
			stats.Deletions++
		}
	}
	stats.TotalChanges = stats.Additions + stats.Deletions

	return lines, stats, nil
}

// diffLines splits a block into newline-terminated lines for the matcher.
// An empty block has no lines at all, so diffing against it degenerates to
// pure insertion or deletion rather than a change against one blank line.
func diffLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}

	return lines
}
