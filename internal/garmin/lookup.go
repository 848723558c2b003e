package garmin

import (
	"sort"
	"strings"
)

// Fuzzy lookup over the exercise taxonomy. Exposed to the AI as a callable
// tool so generated plans reference real vendor identifiers.

type LookupMatch struct {
	Exercise Exercise `json:"-"`
	Sport    Sport    `json:"sport"`
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Score    float64  `json:"score"`
}

// LookupExercises scores every catalog entry against the query and returns
// the best matches, highest score first. An empty sport matches all sports.
func LookupExercises(query string, sport Sport, limit int) []LookupMatch {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	var matches []LookupMatch
	for _, e := range exerciseCatalog {
		if sport != "" && e.Sport != sport {
			continue
		}
		score := scoreExercise(e, queryTokens, strings.ToLower(strings.TrimSpace(query)))
		if score <= 0 {
			continue
		}
		matches = append(matches, LookupMatch{
			Exercise: e,
			Sport:    e.Sport,
			Category: e.Category,
			Name:     e.Name,
			Label:    e.Label("en"),
			Score:    score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func scoreExercise(e Exercise, queryTokens []string, query string) float64 {
	candidates := []string{
		strings.ToLower(e.Label("en")),
		strings.ToLower(strings.ReplaceAll(e.Name, "_", " ")),
		strings.ToLower(strings.ReplaceAll(e.Category, "_", " ")),
	}

	best := 0.0
	for _, candidate := range candidates {
		if candidate == query {
			return 2.0
		}
		score := tokenOverlap(queryTokens, tokenize(candidate))
		if strings.Contains(candidate, query) {
			score += 0.5
		}
		if score > best {
			best = score
		}
	}
	return best
}

// tokenOverlap is the fraction of query tokens present in the candidate.
func tokenOverlap(query, candidate []string) float64 {
	if len(query) == 0 {
		return 0
	}
	candidateSet := make(map[string]bool, len(candidate))
	for _, token := range candidate {
		candidateSet[token] = true
	}
	hits := 0
	for _, token := range query {
		if candidateSet[token] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	var tokens []string
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
