// Package extract implements the local heuristic layer: isolating a
// person's name from an utterance and mapping free-form speech onto form
// fields with label-parameterized patterns. Everything here is
// deterministic and side-effect free, so it doubles as the fallback when
// the remote understanding service is unreachable.
package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Explicit naming phrases, tried in order. The first capturing group is
// the candidate name.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:my|the)\s+(?:name|full\s+name|legal\s+name)\s+(?:is|=|:|as)\s+([A-Za-z\s.'"-]+)(?:\.|,|and|$)`),
	regexp.MustCompile(`(?i)(?:i\s+am|i'm)\s+([A-Za-z\s.'"-]+)(?:\.|,|and|$)`),
	regexp.MustCompile(`(?i)(?:this\s+is|it's)\s+([A-Za-z\s.'"-]+)(?:\.|,|and|$)`),
	regexp.MustCompile(`(?i)(?:call\s+me)\s+([A-Za-z\s.'"-]+)(?:\.|,|and|$)`),
	regexp.MustCompile(`(?i)(?:(?:put|write|record|enter|fill|use)\s+(?:down|in)?)\s*([A-Za-z\s.'"-]+)\s+(?:as|for|in)(?:\s+(?:my|the))?\s+(?:name|full\s+name|legal\s+name)`),
	regexp.MustCompile(`(?i)(?:my|the)\s+(?:name|full\s+name|legal\s+name)\s+(?:should|would|must|will)\s+be\s+([A-Za-z\s.'"-]+)`),
	regexp.MustCompile(`(?i)(?:please\s+)?(?:use|enter|put|write|fill|record)\s+(?:my|the)?\s*(?:name|full\s+name|legal\s+name)\s+(?:as|with|like)\s+([A-Za-z\s.'"-]+)`),
	// Bare direct answer to "what is your name?".
	regexp.MustCompile(`(?i)^([A-Za-z\s.'"-]{2,40})$`),
}

// Second-chance explicit pattern: "put/set/enter … <words> as/for my name"
// with a bounded word group.
var nameAsPattern = regexp.MustCompile(`(?i)(?:put|set|enter|write|fill|use|write down)(?:\s+(?:down|in))?(?:\s+the\s+name)?\s+(\w+(?:\s+\w+){0,3})\s+(?:as|for|in)\s+(?:my|the)?\s*(?:name|full\s+name|legal\s+name)`)

// Runs of 1-4 consecutive capitalized words, the usual shape of a person's
// name mid-sentence.
var capitalizedRunPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3})\b`)

var (
	trailingPunct  = regexp.MustCompile(`[.,;:!?]$`)
	trailingFiller = regexp.MustCompile(`(?i)\s+(?:is|and|or|but|so|then|here|sir|madam|thank you)$`)
	ackWords       = regexp.MustCompile(`(?i)^(?:yes|no|ok|sure|fine|maybe|hi|hello|hey)$`)
	hasLetter      = regexp.MustCompile(`[A-Za-z]`)
)

// PersonName isolates a person's name from an utterance. The boolean
// reports whether a plausible name was found. The cascade is ordered:
// explicit naming phrases, then the put-X-as-name shape, then the longest
// run of capitalized words, and finally the raw input when it is short
// enough to be a direct answer.
func PersonName(input string) (string, bool) {
	normalized := strings.TrimSpace(input)
	if normalized == "" {
		return "", false
	}

	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(normalized)
		if m == nil || m[1] == "" {
			continue
		}
		name := strings.TrimSpace(m[1])
		name = trailingPunct.ReplaceAllString(name, "")
		name = trailingFiller.ReplaceAllString(name, "")
		name = strings.TrimSpace(name)
		if len(name) > 1 && len(name) < 40 {
			return name, true
		}
	}

	if m := nameAsPattern.FindStringSubmatch(normalized); m != nil {
		name := strings.TrimSpace(m[1])
		if len(name) > 1 && len(name) < 40 {
			return name, true
		}
	}

	runs := capitalizedRunPattern.FindAllString(normalized, -1)
	if len(runs) > 0 {
		// Longest run wins; stable sort keeps the earlier occurrence on ties.
		sort.SliceStable(runs, func(i, j int) bool {
			return len(runs[i]) > len(runs[j])
		})
		return strings.TrimSpace(runs[0]), true
	}

	words := strings.Fields(normalized)
	if len(words) >= 1 && len(words) <= 3 &&
		len(normalized) > 1 && len(normalized) < 40 &&
		hasLetter.MatchString(normalized) &&
		!ackWords.MatchString(normalized) {
		return normalized, true
	}

	return "", false
}
