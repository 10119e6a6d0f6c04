package agent

import (
	"regexp"
	"strings"
)

var (
	parenRe     = regexp.MustCompile(`\([^)]*\)`)
	bracketRe   = regexp.MustCompile(`\[[^\]]*\]`)
	numberedRe  = regexp.MustCompile(`^\d+[.)]\s+(.+)$`)
	bulletRe    = regexp.MustCompile(`^[-*]\s+(.+)$`)
	separatorRe = regexp.MustCompile(`^[-:]+$`)
	proseRe     = regexp.MustCompile(`(?i)^(#|here|the |i |note)`)
)

// stripBrackets removes parenthesized and bracketed content and trims.
func stripBrackets(s string) string {
	s = parenRe.ReplaceAllString(strings.TrimSpace(s), "")
	s = bracketRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseTerms extracts medical terms from a model response. The prompt asks
// for a bare numbered list, but models drift, so this also handles bullet
// lists, markdown tables (first column), and bare lines. Terms are
// deduplicated case-insensitively, first spelling wins.
func ParseTerms(content string) []string {
	var terms []string
	seen := make(map[string]struct{})
	add := func(candidate string) {
		if candidate == "" {
			return
		}
		key := strings.ToLower(candidate)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		terms = append(terms, candidate)
	}

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, "|") {
			cells := strings.Split(line, "|")
			for i := range cells {
				cells[i] = strings.TrimSpace(cells[i])
			}
			if len(cells) > 1 && cells[0] == "" {
				cells = cells[1:]
			}
			if len(cells) > 1 && cells[len(cells)-1] == "" {
				cells = cells[:len(cells)-1]
			}
			if len(cells) == 0 {
				continue
			}
			candidate := stripBrackets(cells[0])
			// Skip separator rows and header-like rows.
			if candidate == "" || separatorRe.MatchString(candidate) ||
				strings.HasPrefix(strings.ToLower(candidate), "medical") {
				continue
			}
			add(candidate)
			continue
		}

		if m := numberedRe.FindStringSubmatch(line); m != nil {
			add(stripBrackets(m[1]))
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			add(stripBrackets(m[1]))
			continue
		}

		// Bare line, skipping obvious prose.
		candidate := stripBrackets(line)
		if candidate != "" && !proseRe.MatchString(candidate) {
			add(candidate)
		}
	}
	return terms
}
