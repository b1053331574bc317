package scoring

import (
	"fmt"
	"strings"
	"unicode"
)

// stopWords is the filter list applied to job description tokens.
var stopWords = map[string]bool{
	"able": true, "about": true, "above": true, "after": true, "again": true,
	"also": true, "area": true, "been": true, "before": true, "being": true,
	"best": true, "between": true, "both": true, "candidate": true,
	"candidates": true, "company": true, "could": true, "does": true,
	"each": true, "excellent": true, "experience": true, "from": true,
	"good": true, "have": true, "having": true, "ideal": true, "into": true,
	"join": true, "knowledge": true, "looking": true, "more": true,
	"must": true, "opportunity": true, "other": true, "over": true,
	"plus": true, "required": true, "requirements": true, "responsibilities": true,
	"role": true, "should": true, "skills": true, "some": true, "strong": true,
	"such": true, "team": true, "than": true, "that": true, "their": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "those": true, "understanding": true, "what": true,
	"when": true, "where": true, "which": true, "will": true, "with": true,
	"work": true, "working": true, "would": true, "years": true, "your": true,
}

// aliasTerms maps curated multi-word technical terms to shorter forms
// that still count as a match (e.g. "node" as evidence for "node.js").
var aliasTerms = map[string][]string{
	"node.js":    {"node", "nodejs"},
	"react.js":   {"react", "reactjs"},
	"vue.js":     {"vue", "vuejs"},
	"next.js":    {"next", "nextjs"},
	"express.js": {"express", "expressjs"},
	"postgresql": {"postgres"},
	"kubernetes": {"k8s"},
	"javascript": {"js"},
	"typescript": {"ts"},
}

// descriptionTokens extracts the filtered keyword set from a job:
// description tokens of at least minLen characters with stop words
// removed, plus the required skills folded in explicitly. Tokens are
// lower-cased and deduplicated, insertion-ordered.
func descriptionTokens(description string, requiredSkills []string, minLen int) []string {
	if minLen <= 0 {
		minLen = 4
	}

	fields := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		// Keep characters that appear inside tech terms like c++, node.js, ci/cd
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	})

	var tokens []string
	seen := make(map[string]bool)

	add := func(token string) {
		token = strings.Trim(token, ".")
		if token == "" || seen[token] {
			return
		}
		seen[token] = true
		tokens = append(tokens, token)
	}

	for _, field := range fields {
		trimmed := strings.Trim(field, ".")
		if len(trimmed) < minLen || stopWords[trimmed] {
			continue
		}
		add(trimmed)
	}

	for _, skill := range requiredSkills {
		add(strings.ToLower(skill))
	}

	return tokens
}

// tokenMatched reports whether a job token is evidenced by the
// candidate text. Direct substring containment always counts; curated
// alias forms count for known technical terms in both directions.
func tokenMatched(token, evidence string) bool {
	if strings.Contains(evidence, token) {
		return true
	}

	for _, alias := range aliasTerms[token] {
		if strings.Contains(evidence, alias) {
			return true
		}
	}

	// Reverse direction: evidence says "node.js", token is "node"
	for term, aliases := range aliasTerms {
		for _, alias := range aliases {
			if token == alias && strings.Contains(evidence, term) {
				return true
			}
		}
	}

	return false
}

// candidateEvidence returns the lower-cased candidate text keyword
// matching runs against: resume text when available, otherwise a
// reconstruction from the known skills and experience fields.
func candidateEvidence(rawText string, skills []string, experienceYears int) string {
	if strings.TrimSpace(rawText) != "" {
		return strings.ToLower(rawText)
	}
	reconstructed := fmt.Sprintf("%s %d years experience",
		strings.Join(skills, " "), experienceYears)
	return strings.ToLower(reconstructed)
}
