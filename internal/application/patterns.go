package application

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reviewdeck/reviewdeck/internal/domain/model"
)

// codePattern is one rule in the ad-hoc scan table. Severity, category, and
// auto-applicability are fixed per pattern; they are encoded here, not
// inferred from anything else.
type codePattern struct {
	name           string
	category       model.Category
	severity       model.Severity
	autoApplicable bool
	title          string
	explanation    string
	match          func(line string, inLoop bool) bool
	rewrite        func(line string) string
}

var (
	executeCallRe   = regexp.MustCompile(`(?i)\b(query|exec|execute)\w*\s*\(`)
	interpolationRe = regexp.MustCompile(`%[sdv]|["']\s*\+|\+\s*["']|f["']`)
	credentialRe    = regexp.MustCompile(`(?i)\b(password|passwd|secret|api_?key|token)\s*[:=]+\s*["'][^"']+["']`)
	loopStartRe     = regexp.MustCompile(`(?i)^\s*(for|while)\b.*[:{]\s*$`)
	concatAssignRe  = regexp.MustCompile(`\w+\s*\+=\s*`)
)

// adhocPatterns is the ordered scan table. Earlier patterns win when a line
// matches more than one.
var adhocPatterns = []codePattern{
	{
		name:           "sql-interpolation",
		category:       model.CategorySecurity,
		severity:       model.SeverityCritical,
		autoApplicable: false,
		title:          "Possible SQL injection",
		explanation:    "Query text is built with inline interpolation. Pass values as bind parameters instead.",
		match: func(line string, _ bool) bool {
			return executeCallRe.MatchString(line) && interpolationRe.MatchString(line)
		},
		rewrite: func(line string) string {
			return "// use a parameterized query:\n// db.Query(\"... WHERE col = ?\", value)"
		},
	},
	{
		name:           "hardcoded-credential",
		category:       model.CategorySecurity,
		severity:       model.SeverityCritical,
		autoApplicable: false,
		title:          "Hardcoded credential",
		explanation:    "Credential-like value assigned from a string literal. Load it from the environment or a secret store.",
		match: func(line string, _ bool) bool {
			return credentialRe.MatchString(line)
		},
		rewrite: func(line string) string {
			return "// load from the environment:\n// value := os.Getenv(\"...\")"
		},
	},
	{
		name:           "concat-in-loop",
		category:       model.CategoryPerformance,
		severity:       model.SeverityMedium,
		autoApplicable: true,
		title:          "String concatenation in loop",
		explanation:    "Repeated string concatenation inside a loop allocates quadratically. Accumulate with strings.Builder.",
		match: func(line string, inLoop bool) bool {
			return inLoop && concatAssignRe.MatchString(line) &&
				(strings.Contains(line, `"`) || strings.Contains(line, `'`) || strings.Contains(line, "str"))
		},
		rewrite: func(line string) string {
			return strings.Replace(line, "+=", "// use strings.Builder: sb.WriteString(...) instead of +=", 1)
		},
	},
}

// loopFrame tracks one open loop while scanning. Braced loops close on their
// closing brace; colon-style loops close when indentation falls back to the
// header's level.
type loopFrame struct {
	indent int
	braced bool
}

// ScanCode runs the ad-hoc pattern scan over a standalone code block, outside
// any review context. Each matching line becomes one fix; ids are positional
// and deterministic for the same input.
func ScanCode(code, language string) []model.FixSuggestion {
	_ = language // Patterns are language-agnostic line heuristics.

	var fixes []model.FixSuggestion
	var loops []loopFrame

	for i, line := range strings.Split(code, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		// A colon-style loop body ends at the first nonblank line that is
		// not indented past the header.
		if trimmed != "" {
			indent := indentOf(line)
			for len(loops) > 0 {
				top := loops[len(loops)-1]
				if top.braced || indent > top.indent {
					break
				}
				loops = loops[:len(loops)-1]
			}
		}

		for _, p := range adhocPatterns {
			if !p.match(line, len(loops) > 0) {
				continue
			}

			fixes = append(fixes, model.FixSuggestion{
				ID:             fmt.Sprintf("adhoc-%s-%d", p.name, lineNo),
				Line:           lineNo,
				IssueType:      p.category,
				Severity:       p.severity,
				OriginalCode:   line,
				SuggestedCode:  p.rewrite(line),
				Explanation:    p.explanation,
				Confidence:     fixConfidence,
				AutoApplicable: p.autoApplicable,
			})
			break
		}

		if loopStartRe.MatchString(line) {
			loops = append(loops, loopFrame{
				indent: indentOf(line),
				braced: strings.HasSuffix(trimmed, "{"),
			})
		} else if len(loops) > 0 && trimmed == "}" && loops[len(loops)-1].braced {
			loops = loops[:len(loops)-1]
		}
	}

	return fixes
}

// indentOf counts leading whitespace characters; tabs and spaces both count
// as one. The scan only compares indents within one snippet, so mixed styles
// stay consistent with themselves.
func indentOf(line string) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return len(line)
}
