// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ThresholdPolicy is the length-adaptive admission policy for fuzzy scores.
// Edit-distance similarity is statistically harsher on short strings: one
// character off a four-letter name costs far more of the score than one off a
// twenty-letter name. Names of ShortNameLen runes or fewer are therefore
// admitted at the lower ShortThreshold; longer names at StandardThreshold.
//
// The defaults (4 / 75 / 90) were tuned against the scenarios in the package
// tests; override them through the resolver options when a corpus needs a
// different trade-off.
type ThresholdPolicy struct {
	ShortNameLen      int
	ShortThreshold    float64
	StandardThreshold float64
}

// DefaultThresholdPolicy returns the documented default bands.
func DefaultThresholdPolicy() ThresholdPolicy {
	return ThresholdPolicy{
		ShortNameLen:      4,
		ShortThreshold:    75,
		StandardThreshold: 90,
	}
}

// Validate checks that the policy is usable and monotonic in name length.
func (p ThresholdPolicy) Validate() error {
	if p.ShortNameLen < 1 {
		return fmt.Errorf("short name length must be positive (got %d)", p.ShortNameLen)
	}

	if p.ShortThreshold < 0 || p.ShortThreshold > 100 ||
		p.StandardThreshold < 0 || p.StandardThreshold > 100 {
		return fmt.Errorf(
			"thresholds must be within [0,100] (got %.1f and %.1f)",
			p.ShortThreshold, p.StandardThreshold,
		)
	}

	if p.ShortThreshold > p.StandardThreshold {
		return fmt.Errorf(
			"short-name threshold %.1f must not exceed the standard threshold %.1f",
			p.ShortThreshold, p.StandardThreshold,
		)
	}

	return nil
}

// ThresholdFor returns the minimum acceptable score for the given query name.
func (p ThresholdPolicy) ThresholdFor(name string) float64 {
	if utf8.RuneCountInString(strings.TrimSpace(name)) <= p.ShortNameLen {
		return p.ShortThreshold
	}

	return p.StandardThreshold
}

// Scorer computes fuzzy similarity between a query name and a candidate.
type Scorer struct {
	Policy ThresholdPolicy
}

// NewScorer builds a Scorer with the given policy.
func NewScorer(policy ThresholdPolicy) *Scorer {
	return &Scorer{Policy: policy}
}

// Score returns the similarity in [0,100] between the query name and the
// candidate: the maximum over the canonical and all alternate names of the
// plain, token-sorted and partial ratios. Token sorting makes the measure
// insensitive to word order ("New York City" vs "City of New York").
func (s *Scorer) Score(queryName string, c *Candidate) float64 {
	query := normalizeName(queryName)
	if query == "" {
		return 0
	}

	best := 0.0

	for _, name := range c.Names() {
		name = normalizeName(name)
		if name == "" {
			continue
		}

		score := ratio(query, name)
		if ts := ratio(sortTokens(query), sortTokens(name)); ts > score {
			score = ts
		}

		if pr := partialRatio(query, name); pr > score {
			score = pr
		}

		if score > best {
			best = score
		}

		if best >= 100 {
			break
		}
	}

	return best
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)

	return strings.Join(tokens, " ")
}

// ratio is the normalized indel similarity: 100 * (1 - d/(len(a)+len(b)))
// where d counts insertions and deletions (substitution costs two).
func ratio(a, b string) float64 {
	if a == b {
		return 100
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	dist := indelDistance(ra, rb)
	total := len(ra) + len(rb)

	return 100 * (1 - float64(dist)/float64(total))
}

// partialRatio is the best ratio between the shorter string and any
// equally long window of the longer one.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	if len(ra) == 0 {
		return 0
	}

	if len(ra) == len(rb) {
		return ratio(string(ra), string(rb))
	}

	best := 0.0

	for i := 0; i+len(ra) <= len(rb); i++ {
		score := ratio(string(ra), string(rb[i:i+len(ra)]))
		if score > best {
			best = score
		}

		if best >= 100 {
			break
		}
	}

	return best
}

// indelDistance is the Levenshtein distance restricted to insertions and
// deletions, computed over two rows.
func indelDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i

		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				del := prev[j] + 1
				ins := curr[j-1] + 1

				if del < ins {
					curr[j] = del
				} else {
					curr[j] = ins
				}
			}
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
