package compliance

import (
	"fmt"
	"time"
)

type Match struct {
	Kind IssueKind `json:"kind"`
	Tag  string    `json:"tag"`
	Text string    `json:"text"`
}

type Result struct {
	Compliant     bool        `json:"compliant"`
	Issues        []IssueKind `json:"issues"`
	EmittedText   string      `json:"emittedText"`
	PolicyVersion string      `json:"policyVersion"`
	Matches       []Match     `json:"-"`
}

// Check returns every rule match over the whole text.
func Check(text string) []Match {
	var matches []Match
	for _, r := range Rules() {
		if loc := r.Pattern.FindString(text); loc != "" {
			matches = append(matches, Match{Kind: r.Kind, Tag: r.Tag, Text: loc})
		}
	}
	return matches
}

// Validate screens AI-authored text. Any match discards the original text entirely
// and emits the safe fallback; otherwise the text is returned with the disclaimer footer.
func Validate(text string, at time.Time) Result {
	matches := Check(text)
	if len(matches) > 0 {
		return Result{
			Compliant:     false,
			Issues:        issuesOf(matches),
			EmittedText:   safeFallback,
			PolicyVersion: PolicyVersion,
			Matches:       matches,
		}
	}
	return Result{
		Compliant:     true,
		Issues:        []IssueKind{},
		EmittedText:   text + fmt.Sprintf(disclaimerFooter, at.UTC().Format(time.RFC3339)),
		PolicyVersion: PolicyVersion,
	}
}

// issuesOf lists each kind once, advice before projection.
func issuesOf(matches []Match) []IssueKind {
	seen := make(map[IssueKind]bool, 2)
	for _, m := range matches {
		seen[m.Kind] = true
	}
	issues := make([]IssueKind, 0, len(seen))
	for _, k := range []IssueKind{IssueAdviceLanguage, IssueForwardProjection} {
		if seen[k] {
			issues = append(issues, k)
		}
	}
	return issues
}
