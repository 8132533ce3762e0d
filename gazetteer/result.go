// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

// Outcome is the final state of a resolution request.
type Outcome string

const (
	// OutcomeMatched means a candidate met the similarity threshold.
	OutcomeMatched Outcome = "matched"
	// OutcomeNoMatch means sources answered but no candidate qualified.
	// It is a normal outcome, not an error.
	OutcomeNoMatch Outcome = "no_match"
)

// Result is the answer to one resolution request: either the best candidate
// with its score and originating source, or an explicit no-match.
type Result struct {
	Outcome Outcome    `json:"outcome"`
	Best    *Candidate `json:"best,omitempty"`
	Score   float64    `json:"score,omitempty"`
	Method  string     `json:"method,omitempty"` // source that produced the match
}

// Matched reports whether the resolution found a qualifying candidate.
func (r *Result) Matched() bool {
	return r.Outcome == OutcomeMatched
}

// NoMatch is the Result returned when sources answered but no candidate met
// the threshold (or the filters left none standing).
func NoMatch() Result {
	return Result{Outcome: OutcomeNoMatch}
}
